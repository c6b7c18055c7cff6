package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	// Stream tokens only need to outlive the EventSource handshake.
	streamTokenLifetime = 5 * time.Minute
)

// Service is what the router and handlers need: verifying access tokens and
// issuing and checking stream tokens. Access tokens come from the HRIS backend.
type Service interface {
	GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (user.Principal, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

var _ Service = (*JWTService)(nil)

// NewJWTService builds an HS256 token service. Access tokens are normally
// minted by the HRIS backend sharing the same secret.
func NewJWTService(secretKey string, accessTokenExpirationTime string) (*JWTService, error) {
	exp, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", accessTokenExpirationTime, err)
	}
	return &JWTService{
		accessTokenExpiration: exp,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken mints an access token the way the HRIS backend does.
// It is used by tests and local tooling; the server never calls it.
func (j *JWTService) GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    principal.UserID,
		"company_id": principal.CompanyID,
		"role":       string(principal.Role),
		"type":       TokenTypeAccess,
		"exp":        expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateStreamToken issues a short-lived token an EventSource can carry in
// its query string.
func (j *JWTService) GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(streamTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    principal.UserID,
		"company_id": principal.CompanyID,
		"role":       string(principal.Role),
		"type":       TokenTypeStream,
		"exp":        expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(streamTokenLifetime.Seconds()), nil
}

// ValidateStreamToken verifies signature, expiry and type of a stream token.
func (j *JWTService) ValidateStreamToken(tokenString string) (user.Principal, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return user.Principal{}, auth.ErrTokenExpired
		}
		return user.Principal{}, auth.ErrInvalidToken
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return user.Principal{}, auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeStream {
		return user.Principal{}, auth.ErrWrongTokenType
	}

	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims reads the caller identity from decoded claims.
func PrincipalFromClaims(claims map[string]interface{}) (user.Principal, error) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return user.Principal{}, auth.ErrInvalidToken
	}
	companyID, _ := claims["company_id"].(string)
	if companyID == "" {
		return user.Principal{}, user.ErrCompanyIDRequired
	}
	role, _ := claims["role"].(string)
	if !user.Role(role).IsValid() {
		return user.Principal{}, user.ErrUnknownRole
	}

	return user.Principal{
		UserID:    userID,
		CompanyID: companyID,
		Role:      user.Role(role),
	}, nil
}

// PrincipalFromContext reads the caller identity placed in ctx by
// jwtauth.Verifier.
func PrincipalFromContext(ctx context.Context) (user.Principal, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Principal{}, auth.ErrInvalidToken
	}
	return PrincipalFromClaims(claims)
}
