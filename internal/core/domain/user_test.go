package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasRefreshToken(t *testing.T) {
	t.Run("should return false when no token is stored", func(t *testing.T) {
		user := User{}

		assert.False(t, user.HasRefreshToken("anything"))
	})

	t.Run("should match only the stored token", func(t *testing.T) {
		user := User{}
		user.SetRefreshToken("current")

		assert.True(t, user.HasRefreshToken("current"))
		assert.False(t, user.HasRefreshToken("previous"))
		assert.False(t, user.HasRefreshToken(""))
	})

	t.Run("should return false after the token is cleared", func(t *testing.T) {
		user := User{}
		user.SetRefreshToken("current")
		user.ClearRefreshToken()

		assert.False(t, user.HasRefreshToken("current"))
	})
}

func TestUser_Otp(t *testing.T) {
	now := time.Now()

	t.Run("should match and not be expired before expiry", func(t *testing.T) {
		user := User{}
		user.SetOtp("123456", now.Add(4*time.Minute))

		assert.True(t, user.HasOtp())
		assert.True(t, user.OtpMatches("123456"))
		assert.False(t, user.OtpMatches("654321"))
		assert.False(t, user.OtpExpired(now))
	})

	t.Run("should be expired at or after expiry", func(t *testing.T) {
		user := User{}
		user.SetOtp("123456", now)

		assert.True(t, user.OtpExpired(now))
		assert.True(t, user.OtpExpired(now.Add(time.Second)))
	})

	t.Run("should clear otp state", func(t *testing.T) {
		user := User{}
		user.SetOtp("123456", now.Add(time.Minute))
		user.ClearOtp()

		assert.False(t, user.HasOtp())
		assert.Nil(t, user.OtpExpiry)
		assert.False(t, user.OtpMatches("123456"))
	})
}

func TestUser_MarkVerified(t *testing.T) {
	user := User{}
	user.SetVerificationToken("token")

	user.MarkVerified()

	assert.True(t, user.IsVerified)
	assert.Nil(t, user.VerificationToken)
}
