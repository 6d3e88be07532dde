package postgres

import (
	"database/sql"

	"github.com/go-kit/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/strategiz/authcore/internal/password"
)

// TestClient returns a test client with necessary dependencies
// already provided.
func TestClient(db *sql.DB) *Client {
	passwordSvc := password.NewPassword(password.WithCost(bcrypt.MinCost))
	testClient := NewClient(
		WithLogger(log.NewNopLogger()),
		WithPassword(passwordSvc),
		WithDB(db),
	)

	return testClient
}
