package domain

import (
	"crypto/subtle"
	"time"
)

type User struct {
	ID                string
	FullName          string
	Email             string
	PasswordHash      string
	ProfilePictureURL string
	IsVerified        bool
	RefreshToken      *string
	Otp               *string
	OtpExpiry         *time.Time
	VerificationToken *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasRefreshToken reports whether token is the single active refresh token.
func (u *User) HasRefreshToken(token string) bool {
	if u.RefreshToken == nil || token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(token)) == 1
}

func (u *User) HasOtp() bool {
	return u.Otp != nil && *u.Otp != ""
}

func (u *User) OtpMatches(code string) bool {
	if !u.HasOtp() {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*u.Otp), []byte(code)) == 1
}

func (u *User) OtpExpired(now time.Time) bool {
	return u.OtpExpiry == nil || !now.Before(*u.OtpExpiry)
}

func (u *User) ClearOtp() {
	u.Otp = nil
	u.OtpExpiry = nil
}

func (u *User) SetOtp(code string, expiry time.Time) {
	u.Otp = &code
	u.OtpExpiry = &expiry
}

func (u *User) SetRefreshToken(token string) {
	u.RefreshToken = &token
}

func (u *User) ClearRefreshToken() {
	u.RefreshToken = nil
}

func (u *User) SetVerificationToken(token string) {
	u.VerificationToken = &token
}

// MarkVerified flips the account to verified and drops the pending token.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationToken = nil
}
