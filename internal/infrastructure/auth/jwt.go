package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/iho/dochub/internal/domain"
)

// DefaultIssuer is the iss claim of tokens issued by this service.
const DefaultIssuer = "dochub"

// Claims represents the JWT claims of a bearer token.
type Claims struct {
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// DownloadClaims binds a download token (the subject) to document ids.
type DownloadClaims struct {
	DocumentIDs []string `json:"document_ids"`
	jwt.RegisteredClaims
}

// JWTManager manages JWT token creation and validation.
type JWTManager struct {
	secretKey        []byte
	tokenDuration    time.Duration
	downloadDuration time.Duration
	issuer           string
	now              func() time.Time
}

// Option configures a JWTManager.
type Option func(*JWTManager)

// WithIssuer sets the issuer written to and required from tokens.
func WithIssuer(issuer string) Option {
	return func(m *JWTManager) { m.issuer = issuer }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

// WithDownloadDuration sets the lifetime of download signatures.
func WithDownloadDuration(d time.Duration) Option {
	return func(m *JWTManager) { m.downloadDuration = d }
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration, opts ...Option) *JWTManager {
	m := &JWTManager{
		secretKey:        []byte(secretKey),
		tokenDuration:    tokenDuration,
		downloadDuration: 15 * time.Minute,
		issuer:           DefaultIssuer,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sign issues a bearer token for the session.
func (m *JWTManager) Sign(session domain.SessionContext) (string, error) {
	now := m.now()
	claims := Claims{
		ActorID:  session.ActorID,
		Username: session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    m.issuer,
			Subject:   session.ActorID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Inspect verifies the signature and issuer of raw, then classifies it by
// expiry against the manager's clock. Expired tokens return their claims along
// with domain.ErrExpiredToken.
func (m *JWTManager) Inspect(raw string) (*domain.TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, m.keyFunc)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	if claims.Issuer != m.issuer || claims.ActorID == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.TokenClaims{
		TokenID:   claims.ID,
		ActorID:   claims.ActorID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	if !m.now().Before(out.ExpiresAt) {
		return out, domain.ErrExpiredToken
	}

	return out, nil
}

// SignDownload binds token to documentIDs for the download duration.
func (m *JWTManager) SignDownload(token string, documentIDs []string) (string, error) {
	if token == "" || len(documentIDs) == 0 {
		return "", fmt.Errorf("%w: empty download grant", domain.ErrValidation)
	}

	now := m.now()
	claims := DownloadClaims{
		DocumentIDs: documentIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   token,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.downloadDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyDownload returns the document ids bound to token by signature.
func (m *JWTManager) VerifyDownload(token, signature string) ([]string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithSubject(token),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &DownloadClaims{}
	parsed, err := parser.ParseWithClaims(signature, claims, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}
	if !parsed.Valid || len(claims.DocumentIDs) == 0 {
		return nil, domain.ErrInvalidToken
	}

	return claims.DocumentIDs, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	// Validate signing method
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secretKey, nil
}
