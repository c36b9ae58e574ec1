package testutil

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/npezzotti/go-budget/internal/database"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}

// NewTestRepository opens a migrated in-memory SQLite repository that is
// closed when the test ends.
func NewTestRepository(t *testing.T) *database.SQLRepository {
	t.Helper()

	repo, err := database.NewSQLRepository("sqlite", ":memory:")
	require.NoError(t, err, "failed to open test repository")
	t.Cleanup(func() { repo.Close() })

	return repo
}

func CreateTestAccount(t *testing.T, repo database.Repository, username string) database.User {
	t.Helper()

	u, err := repo.CreateAccount(context.Background(), database.CreateAccountParams{
		Username:     username,
		EmailAddress: username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err, "failed to create account %s", username)
	return u
}
