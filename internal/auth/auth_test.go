package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/decisiond/internal/db"
)

func setupAuthDB(t *testing.T) *db.DB {
	t.Helper()
	tmp := filepath.Join(os.TempDir(), "decisiond_test_auth.db")
	t.Cleanup(func() { os.Remove(tmp) })

	database, err := db.New(tmp)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestLoginAndValidateSession(t *testing.T) {
	database := setupAuthDB(t)
	ctx := context.Background()

	require.NoError(t, SeedAdmin(ctx, database, "admin", "changeme"))

	token, userID, err := Login(ctx, database, "admin", "changeme", 24)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, userID)

	user, err := ValidateSession(ctx, database, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = ValidateSession(ctx, database, "bogus-token")
	assert.Error(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	database := setupAuthDB(t)
	ctx := context.Background()

	require.NoError(t, SeedAdmin(ctx, database, "admin", "changeme"))

	_, _, err := Login(ctx, database, "admin", "wrong", 24)
	assert.Error(t, err)

	_, _, err = Login(ctx, database, "nobody", "changeme", 24)
	assert.Error(t, err)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	database := setupAuthDB(t)
	ctx := context.Background()

	require.NoError(t, SeedAdmin(ctx, database, "admin", "changeme"))
	token, _, err := Login(ctx, database, "admin", "changeme", 24)
	require.NoError(t, err)

	require.NoError(t, Logout(ctx, database, token))
	_, err = ValidateSession(ctx, database, token)
	assert.Error(t, err)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	database := setupAuthDB(t)
	ctx := context.Background()

	require.NoError(t, SeedAdmin(ctx, database, "admin", "changeme"))
	require.NoError(t, SeedAdmin(ctx, database, "admin", "changeme"))

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}
