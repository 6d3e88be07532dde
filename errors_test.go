package authcore

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestErrors_RetrieveDomainErrorCode(t *testing.T) {
	tt := []struct {
		name string
		code ErrCode
		err  error
	}{
		{
			name: "Typed error",
			code: EMismatch,
			err:  ErrMismatch("invalid code"),
		},
		{
			name: "stdlib error",
			code: EInternal,
			err:  fmt.Errorf("whoops"),
		},
		{
			name: "Wrapped error",
			code: EBadRequest,
			err:  fmt.Errorf("whoops: %w", ErrBadRequest("bad request")),
		},
		{
			name: "Multi layered error",
			code: EInvalidToken,
			err: fmt.Errorf("whoops: %w",
				fmt.Errorf("wrapped: %w", ErrInvalidToken("bad token")),
			),
		},
		{
			name: "pkg/errors wrapped error",
			code: EInfrastructure,
			err:  errors.Wrap(ErrInfrastructure("redis unavailable"), "dial tcp: connection refused"),
		},
		{
			name: "Nil error",
			code: ErrCode(""),
			err:  nil,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.code {
				t.Error("code does not match", cmp.Diff(code, tc.code))
			}
		})
	}
}

func TestErrors_MessageOmitsCode(t *testing.T) {
	err := ErrConflict("email is already registered")

	if err.Message() != "email is already registered" {
		t.Error("message does not match", cmp.Diff(err.Message(), "email is already registered"))
	}

	if err.Error() != "[conflict] email is already registered" {
		t.Error("error string does not match", cmp.Diff(err.Error(), "[conflict] email is already registered"))
	}
}
