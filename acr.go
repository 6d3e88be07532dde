package authcore

import (
	"strconv"
)

// ACR is an Authentication Context Class Reference, the assurance
// level attached to every token.
type ACR string

const (
	// ACRSingleFactor is reached by any one factor.
	ACRSingleFactor ACR = "1"
	// ACRMultiFactor is reached by a passkey or by two distinct factors.
	ACRMultiFactor ACR = "2"
)

var knownFactors = map[FactorType]bool{
	FactorPassword:    true,
	FactorPasskey:     true,
	FactorTOTP:        true,
	FactorBackupCode:  true,
	FactorSMS:         true,
	FactorEmailOTP:    true,
	FactorMagicLink:   true,
	FactorDeviceTrust: true,
}

// Level returns the numeric level of an ACR. Unknown values are level 0.
func (a ACR) Level() int {
	n, err := strconv.Atoi(string(a))
	if err != nil || n < 0 {
		return 0
	}

	return n
}

// Satisfies reports whether a meets a minimum ACR.
func (a ACR) Satisfies(min ACR) bool {
	return a.Level() >= min.Level()
}

// ACRFor computes the ACR reached by a set of satisfied factors:
//
//	PASSKEY alone                     "2"
//	two or more distinct factors      "2"
//	any other single factor           "1"
//
// Order and duplicates in amr do not affect the result.
func ACRFor(amr []FactorType) (ACR, error) {
	factors := NormalizeAMR(amr)
	if len(factors) == 0 {
		return "", ErrInvalidField("at least one authentication method is required")
	}

	for _, f := range factors {
		if !knownFactors[f] {
			return "", ErrInvalidField("unknown authentication method " + string(f))
		}
	}

	if len(factors) > 1 {
		return ACRMultiFactor, nil
	}

	if factors[0] == FactorPasskey {
		return ACRMultiFactor, nil
	}

	return ACRSingleFactor, nil
}

// NormalizeAMR removes duplicate and empty factors while keeping
// the order in which factors were first satisfied.
func NormalizeAMR(amr []FactorType) []FactorType {
	seen := map[FactorType]bool{}
	factors := make([]FactorType, 0, len(amr))
	for _, f := range amr {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		factors = append(factors, f)
	}

	return factors
}

// MergeAMR combines the factors of an existing session with newly
// satisfied ones.
func MergeAMR(current []FactorType, added ...FactorType) []FactorType {
	merged := make([]FactorType, 0, len(current)+len(added))
	merged = append(merged, current...)
	merged = append(merged, added...)

	return NormalizeAMR(merged)
}
