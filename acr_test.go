package authcore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestACR_PolicyTable(t *testing.T) {
	tt := []struct {
		name    string
		amr     []FactorType
		acr     ACR
		errCode ErrCode
	}{
		{
			name: "Password only",
			amr:  []FactorType{FactorPassword},
			acr:  ACRSingleFactor,
		},
		{
			name: "SMS only",
			amr:  []FactorType{FactorSMS},
			acr:  ACRSingleFactor,
		},
		{
			name: "Email OTP only",
			amr:  []FactorType{FactorEmailOTP},
			acr:  ACRSingleFactor,
		},
		{
			name: "Magic link only",
			amr:  []FactorType{FactorMagicLink},
			acr:  ACRSingleFactor,
		},
		{
			name: "Device trust only",
			amr:  []FactorType{FactorDeviceTrust},
			acr:  ACRSingleFactor,
		},
		{
			name: "TOTP only",
			amr:  []FactorType{FactorTOTP},
			acr:  ACRSingleFactor,
		},
		{
			name: "Passkey alone",
			amr:  []FactorType{FactorPasskey},
			acr:  ACRMultiFactor,
		},
		{
			name: "Password and TOTP",
			amr:  []FactorType{FactorPassword, FactorTOTP},
			acr:  ACRMultiFactor,
		},
		{
			name: "Password and backup code",
			amr:  []FactorType{FactorPassword, FactorBackupCode},
			acr:  ACRMultiFactor,
		},
		{
			name: "Duplicated single factor",
			amr:  []FactorType{FactorEmailOTP, FactorEmailOTP},
			acr:  ACRSingleFactor,
		},
		{
			name:    "Empty amr",
			amr:     []FactorType{},
			errCode: EInvalidField,
		},
		{
			name:    "Unknown factor",
			amr:     []FactorType{FactorType("RETINA")},
			errCode: EInvalidField,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			acr, err := ACRFor(tc.amr)
			if ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(ErrorCode(err), tc.errCode))
			}
			if acr != tc.acr {
				t.Error("acr does not match", cmp.Diff(acr, tc.acr))
			}
		})
	}
}

func TestACR_IsOrderIndependent(t *testing.T) {
	a, err := ACRFor([]FactorType{FactorTOTP, FactorPassword})
	if err != nil {
		t.Fatal("failed to compute acr:", err)
	}

	b, err := ACRFor([]FactorType{FactorPassword, FactorTOTP, FactorPassword})
	if err != nil {
		t.Fatal("failed to compute acr:", err)
	}

	if a != b {
		t.Error("acr depends on order", cmp.Diff(a, b))
	}
}

func TestACR_Satisfies(t *testing.T) {
	tt := []struct {
		name     string
		acr      ACR
		min      ACR
		expected bool
	}{
		{"Equal levels", ACRMultiFactor, ACRMultiFactor, true},
		{"Higher level", ACRMultiFactor, ACRSingleFactor, true},
		{"Lower level", ACRSingleFactor, ACRMultiFactor, false},
		{"Unknown level", ACR("x"), ACRSingleFactor, false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if tc.acr.Satisfies(tc.min) != tc.expected {
				t.Error("satisfies does not match", cmp.Diff(tc.acr.Satisfies(tc.min), tc.expected))
			}
		})
	}
}

func TestACR_MergeAMR(t *testing.T) {
	merged := MergeAMR([]FactorType{FactorPassword}, FactorTOTP, FactorPassword)
	expected := []FactorType{FactorPassword, FactorTOTP}
	if !cmp.Equal(merged, expected) {
		t.Error("merged amr does not match", cmp.Diff(merged, expected))
	}
}
