// Package token issues and verifies the signed credentials used by the auth
// flow: access, refresh and email-verification JWTs plus numeric OTPs.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

const (
	otpMin = 100000
	otpMax = 999999
)

type Config struct {
	AccessSecret       string
	AccessTTL          time.Duration
	RefreshSecret      string
	RefreshTTL         time.Duration
	VerificationSecret string
	VerificationTTL    time.Duration
	OtpTTL             time.Duration
}

type Claims struct {
	Kind port.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type keyConfig struct {
	secret []byte
	ttl    time.Duration
}

type Issuer struct {
	keys   map[port.TokenKind]keyConfig
	otpTTL time.Duration
	now    func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.VerificationSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}

	if cfg.OtpTTL <= 0 {
		cfg.OtpTTL = 4 * time.Minute
	}

	return &Issuer{
		keys: map[port.TokenKind]keyConfig{
			port.AccessToken:       {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			port.RefreshToken:      {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
			port.VerificationToken: {secret: []byte(cfg.VerificationSecret), ttl: cfg.VerificationTTL},
		},
		otpTTL: cfg.OtpTTL,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source; used to exercise expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) IssueAccessToken(userID string) (string, error) {
	return i.issue(userID, port.AccessToken)
}

func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	return i.issue(userID, port.RefreshToken)
}

func (i *Issuer) IssueVerificationToken(userID string) (string, error) {
	return i.issue(userID, port.VerificationToken)
}

func (i *Issuer) TTL(kind port.TokenKind) time.Duration {
	return i.keys[kind].ttl
}

// IssueOtp returns a six digit code and the instant it stops being valid.
func (i *Issuer) IssueOtp() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))

	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+otpMin), i.now().Add(i.otpTTL), nil
}

func (i *Issuer) Verify(tokenString string, kind port.TokenKind) (string, error) {
	key, ok := i.keys[kind]

	if !ok {
		return "", domain.WrapError(domain.CodeInvalidToken, "invalid token", fmt.Errorf("unknown token kind %q", kind))
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.WrapError(domain.CodeExpiredToken, "token expired", err)
		}

		return "", domain.WrapError(domain.CodeInvalidToken, "invalid token", err)
	}

	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return "", domain.NewError(domain.CodeInvalidToken, "invalid token")
	}

	return claims.Subject, nil
}

func (i *Issuer) issue(userID string, kind port.TokenKind) (string, error) {
	if userID == "" {
		return "", errors.New("token subject is empty")
	}

	key := i.keys[kind]
	now := i.now()

	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
}
