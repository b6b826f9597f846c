package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// SessionConfig holds token verification settings.
type SessionConfig struct {
	Secret string
	Issuer string
}

// SessionService turns bearer tokens into explicit viewer sessions. Tokens are minted by the
// identity provider; IssueToken exists for tooling and tests.
type SessionService struct {
	config SessionConfig
	now    func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(config SessionConfig) *SessionService {
	return &SessionService{config: config, now: time.Now}
}

// ValidateToken verifies an HS256 token and returns its claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// IssueToken signs a token for session valid for ttl.
func (s *SessionService) IssueToken(session models.Session, ttl time.Duration) (string, error) {
	if !session.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "session requires a user id")
	}
	issuedAt := s.now().UTC()
	claims := &models.SessionClaims{
		UserID:      session.UserID,
		Role:        session.Role,
		DisplayName: session.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
