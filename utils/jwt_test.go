package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, exp, err := GenerateToken("secret", "user-1", "a@b.c", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestParseTokenRejects(t *testing.T) {
	token, _, err := GenerateToken("secret", "user-1", "a@b.c", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, _, err := GenerateToken("secret", "user-1", "a@b.c", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	_, err = ParseToken("secret", "garbage")
	assert.Error(t, err)
}

func TestTokenBlacklistInMemory(t *testing.T) {
	BlacklistToken("tok-a", time.Now().Add(time.Minute))
	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-b"))

	// already expired tokens are not recorded
	BlacklistToken("tok-c", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("tok-c"))
}

func TestPasswordHash(t *testing.T) {
	PasswordCost = 4
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestSanitizePostField(t *testing.T) {
	assert.Equal(t, "Hello World", SanitizePostField("  Hello World  "))
	assert.Equal(t, "hi", SanitizePostField(`<script>alert(1)</script>hi`))
	assert.Equal(t, "Tom & Jerry", SanitizePostField("Tom & Jerry"))
	assert.Equal(t, `a < b "quoted" it's`, SanitizePostField(`a < b "quoted" it's`))
	assert.Equal(t, SanitizePostField("Tom & Jerry"), SanitizePostField(SanitizePostField("Tom & Jerry")))
}
