// Package auth issues and verifies the access/refresh token pair and tracks revoked access tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, expiry, issuer or audience checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by long-lived refresh tokens. They identify the user only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 tokens. Access and refresh tokens use different secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	now           func() time.Time
}

// NewTokenIssuer builds a TokenIssuer from the token settings in cfg.
func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenExpiry,
		refreshTTL:    cfg.RefreshTokenExpiry,
		issuer:        cfg.TokenIssuer,
		audience:      cfg.TokenAudience,
		now:           time.Now,
	}
}

// RefreshTTL is the lifetime of refresh tokens, used for cookie expiry.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// AccessTTL is the lifetime of access tokens, used for cookie expiry.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// IssuePair signs a fresh access and refresh token for user.
func (t *TokenIssuer) IssuePair(user *models.User) (models.Session, error) {
	access, err := t.IssueAccess(user)
	if err != nil {
		return models.Session{}, err
	}
	refresh, err := t.IssueRefresh(user.ID)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs an access token describing user.
func (t *TokenIssuer) IssueAccess(user *models.User) (string, error) {
	if len(t.accessSecret) == 0 {
		return "", fmt.Errorf("access token secret not configured")
	}
	now := t.now()
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		Fullname: user.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// IssueRefresh signs a refresh token for userID.
func (t *TokenIssuer) IssueRefresh(userID uint) (string, error) {
	if len(t.refreshSecret) == 0 {
		return "", fmt.Errorf("refresh token secret not configured")
	}
	now := t.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

// ParseAccess verifies an access token and returns its claims.
func (t *TokenIssuer) ParseAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}
	if err := t.parse(raw, claims, t.accessSecret, opts); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and returns its claims.
func (t *TokenIssuer) ParseRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if err := t.parse(raw, claims, t.refreshSecret, opts); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims, secret []byte, opts []jwt.ParserOption) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// SubjectID converts the numeric sub claim to a user ID.
func SubjectID(claims jwt.RegisteredClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return uint(id), nil
}
