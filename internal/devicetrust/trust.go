package devicetrust

import (
	"time"

	auth "github.com/strategiz/authcore"
)

const (
	scorePasskey     = 90
	scoreMultiFactor = 80
)

// trustLevel maps a trust score to a level and the duration trust lasts.
// Scores below the RECOGNIZED threshold are not trusted.
func trustLevel(score int) (auth.TrustLevel, time.Duration) {
	switch {
	case score >= 90:
		return auth.TrustHigh, time.Hour * 24 * 90
	case score >= 80:
		return auth.TrustTrusted, time.Hour * 24 * 30
	case score >= 70:
		return auth.TrustRecognized, time.Hour * 24 * 7
	default:
		return auth.TrustUnknown, 0
	}
}

// score rates an enrollment by the strongest factor that
// authenticated it.
func score(amr []auth.FactorType) int {
	for _, f := range amr {
		if f == auth.FactorPasskey {
			return scorePasskey
		}
	}

	return scoreMultiFactor
}
