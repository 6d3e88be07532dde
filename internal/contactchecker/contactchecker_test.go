package contactchecker

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	auth "github.com/strategiz/authcore"
)

func TestContactChecker_ValidatesPhone(t *testing.T) {
	tt := []struct {
		name string
		in   string
		out  bool
	}{
		{
			name: "Valid phone number",
			in:   "+6594867353",
			out:  true,
		},
		{
			name: "Invalid phone number without country code",
			in:   "94867353",
			out:  false,
		},
		{
			name: "Invalid phone number without prefix",
			in:   "6594867353",
			out:  false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			res := Validator(auth.Phone)(tc.in)
			if res != tc.out {
				t.Error("phone validation failed", cmp.Diff(res, tc.out))
			}
		})
	}
}

func TestContactChecker_ValidatesEmail(t *testing.T) {
	tt := []struct {
		name string
		in   string
		out  bool
	}{
		{
			name: "Valid email address",
			in:   "jane@example.com",
			out:  true,
		},
		{
			name: "Invalid email address with no second level domain",
			in:   "jane@",
			out:  false,
		},
		{
			name: "Invalid email address with display name",
			in:   "Jane <jane@example.com>",
			out:  false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			res := Validator(auth.Email)(tc.in)
			if res != tc.out {
				t.Error("email validation failed", cmp.Diff(res, tc.out))
			}
		})
	}
}

func TestContactChecker_Normalize(t *testing.T) {
	tt := []struct {
		name    string
		method  auth.DeliveryMethod
		in      string
		out     string
		errCode auth.ErrCode
	}{
		{
			name:    "Email is lower cased",
			method:  auth.Email,
			in:      " Jane@Example.COM ",
			out:     "jane@example.com",
			errCode: auth.ErrCode(""),
		},
		{
			name:    "Phone is E164 formatted",
			method:  auth.Phone,
			in:      "+65 9486 7353",
			out:     "+6594867353",
			errCode: auth.ErrCode(""),
		},
		{
			name:    "Invalid phone",
			method:  auth.Phone,
			in:      "94867353",
			out:     "",
			errCode: auth.EInvalidField,
		},
		{
			name:    "Unknown method",
			method:  auth.DeliveryMethod("fax"),
			in:      "jane@example.com",
			out:     "",
			errCode: auth.EInvalidField,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Normalize(tc.method, tc.in)
			if auth.ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode))
			}
			if out != tc.out {
				t.Error("normalized address does not match", cmp.Diff(out, tc.out))
			}
		})
	}
}

func TestContactChecker_Mask(t *testing.T) {
	if got := MaskEmail("jane@example.com"); got != "j***@example.com" {
		t.Error("masked email does not match", cmp.Diff(got, "j***@example.com"))
	}
	if got := MaskPhone("+6594867353"); got != "*******7353" {
		t.Error("masked phone does not match", cmp.Diff(got, "*******7353"))
	}
	if got := MaskEmail("invalid"); got != "" {
		t.Error("expected empty mask for invalid email, got", got)
	}
}
