package test

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

const pgConnTemplate = "user=auth password=swordfish host=%s port=5432 dbname=%s connect_timeout=3 sslmode=disable"

// PGClient is a throwaway Postgres database loaded with the schema.
type PGClient struct {
	DB     *sql.DB
	dbName string
}

// NewPGDB creates a uniquely named database so packages may run
// their repository tests in parallel. The server is read from
// POSTGRES_HOST and defaults to localhost.
func NewPGDB() (*PGClient, error) {
	id, err := entropy.ID(nil)
	if err != nil {
		return nil, fmt.Errorf("cannot name test DB: %w", err)
	}
	dbName := "authcore_test_" + strings.ToLower(id)

	sysDB, err := sql.Open("postgres", pgConn("postgres"))
	if err != nil {
		return nil, fmt.Errorf("system db connect failed: %w", err)
	}
	defer sysDB.Close()

	if _, err = sysDB.Exec("CREATE DATABASE " + dbName); err != nil {
		return nil, fmt.Errorf("cannot create test DB: %w", err)
	}

	db, err := sql.Open("postgres", pgConn(dbName))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to test DB: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("no response to ping: %w", err)
	}

	if _, err = db.Exec(auth.Schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PGClient{DB: db, dbName: dbName}, nil
}

// DropDB closes the connection and removes the database.
func (c *PGClient) DropDB() error {
	c.DB.Close()

	sysDB, err := sql.Open("postgres", pgConn("postgres"))
	if err != nil {
		return err
	}
	defer sysDB.Close()

	_, err = sysDB.Exec("DROP DATABASE IF EXISTS " + c.dbName)
	return err
}

func pgConn(dbName string) string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	return fmt.Sprintf(pgConnTemplate, host, dbName)
}
