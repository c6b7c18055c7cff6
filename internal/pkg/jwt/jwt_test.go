package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

var testPrincipal = user.Principal{UserID: "user-1", CompanyID: "company-1", Role: user.RoleManager}

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	s, err := NewJWTService(testSecret, "1h")
	require.NoError(t, err)
	return s
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService(testSecret, "an hour")
	assert.Error(t, err)
}

func TestStreamToken_RoundTrip(t *testing.T) {
	s := newTestService(t)

	token, expiresIn, err := s.GenerateStreamToken(testPrincipal)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	got, err := s.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, got)
}

func TestValidateStreamToken_RejectsAccessToken(t *testing.T) {
	s := newTestService(t)

	token, _, err := s.GenerateAccessToken(testPrincipal)
	require.NoError(t, err)

	_, err = s.ValidateStreamToken(token)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
}

func TestValidateStreamToken_Expired(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := s.GenerateStreamToken(testPrincipal)
	require.NoError(t, err)

	_, err = s.ValidateStreamToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestValidateStreamToken_ForeignSignature(t *testing.T) {
	other, err := NewJWTService("another-secret", "1h")
	require.NoError(t, err)
	token, _, err := other.GenerateStreamToken(testPrincipal)
	require.NoError(t, err)

	_, err = newTestService(t).ValidateStreamToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = newTestService(t).ValidateStreamToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPrincipalFromClaims(t *testing.T) {
	_, err := PrincipalFromClaims(map[string]interface{}{"company_id": "c"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = PrincipalFromClaims(map[string]interface{}{"user_id": "u"})
	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)

	_, err = PrincipalFromClaims(map[string]interface{}{"user_id": "u", "company_id": "c", "role": "auditor"})
	assert.ErrorIs(t, err, user.ErrUnknownRole)

	p, err := PrincipalFromClaims(map[string]interface{}{"user_id": "u", "company_id": "c", "role": "owner"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleOwner, p.Role)
}

func TestPrincipalFromContext(t *testing.T) {
	s := newTestService(t)
	token, _, err := s.GenerateAccessToken(testPrincipal)
	require.NoError(t, err)

	decoded, err := s.JWTAuth().Decode(token)
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), decoded, nil)

	got, err := PrincipalFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, got)

	_, err = PrincipalFromContext(context.Background())
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// verifyOnly satisfies Service without being able to mint access tokens.
type verifyOnly struct{ *JWTService }

func (v verifyOnly) GenerateAccessToken() {}

func TestService_DoesNotRequireAccessTokenMinting(t *testing.T) {
	var svc Service = verifyOnly{newTestService(t)}

	token, expiresIn, err := svc.GenerateStreamToken(testPrincipal)
	require.NoError(t, err)
	assert.Positive(t, expiresIn)

	got, err := svc.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, got)
}
