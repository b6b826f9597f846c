package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

func TestSessionServiceRoundTrip(t *testing.T) {
	svc := NewSessionService(SessionConfig{Secret: "s3cret", Issuer: "review"})
	token, err := svc.IssueToken(reviewer, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, reviewer, claims.Session())
}

func TestSessionServiceRejectsBadTokens(t *testing.T) {
	svc := NewSessionService(SessionConfig{Secret: "s3cret", Issuer: "review"})

	other := NewSessionService(SessionConfig{Secret: "different", Issuer: "review"})
	forged, err := other.IssueToken(reviewer, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	expired, err := svc.IssueToken(reviewer, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	foreign := NewSessionService(SessionConfig{Secret: "s3cret", Issuer: "someone-else"})
	wrongIssuer, err := foreign.IssueToken(reviewer, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{UserID: "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)

	_, err = svc.IssueToken(models.Session{}, time.Hour)
	assert.Error(t, err)
}
