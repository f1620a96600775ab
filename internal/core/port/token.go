package port

import "time"

type TokenKind string

const (
	AccessToken       TokenKind = "access"
	RefreshToken      TokenKind = "refresh"
	VerificationToken TokenKind = "verification"
)

type TokenIssuer interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	IssueVerificationToken(userID string) (string, error)
	IssueOtp() (string, time.Time, error)
	Verify(token string, kind TokenKind) (string, error)
	TTL(kind TokenKind) time.Duration
}
