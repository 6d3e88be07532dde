package postgres

import (
	"testing"

	"github.com/strategiz/authcore/internal/test"
)

// newTestDB creates a fresh database or skips the test when
// Postgres is unreachable.
func newTestDB(t *testing.T) *test.PGClient {
	pgDB, err := test.NewPGDB()
	if err != nil {
		t.Skip("postgres unavailable:", err)
	}
	t.Cleanup(func() {
		pgDB.DropDB()
	})

	return pgDB
}
