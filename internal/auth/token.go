package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const (
	tokenIssuer = "helpdesk-service"
	clockSkew   = 30 * time.Second
)

// TokenManager issues and validates the bearer tokens of profiles, collaborators and devices.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// Claims carries the subject kind next to the registered claims.
type Claims struct {
	SubjectID string             `json:"subject_id"`
	Subject   domain.SubjectType `json:"subject"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the caller identity used by services.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{Kind: c.Subject, ID: c.SubjectID}
}

// GenerateToken signs a token for the subject and returns its expiry.
func (tm *TokenManager) GenerateToken(subjectID string, subject domain.SubjectType) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		SubjectID: subjectID,
		Subject:   subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates signature, issuer, expiry and subject kind.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := tm.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.SubjectID == "" || claims.SubjectID != claims.RegisteredClaims.Subject {
		return nil, errors.New("token subject mismatch")
	}
	switch claims.Subject {
	case domain.SubjectTypeProfile, domain.SubjectTypeCollaborator, domain.SubjectTypeDevice:
	default:
		return nil, errors.New("unknown token subject")
	}
	return claims, nil
}
