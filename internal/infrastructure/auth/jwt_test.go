package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/infrastructure/auth"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestJWTManagerSignAndInspect(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := auth.NewJWTManager("super-secret", time.Minute, auth.WithClock(clock.Now))

	session := domain.SessionContext{ActorID: "actor-123", Username: "alice", RoleID: "role-1"}
	token, err := manager.Sign(session)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	claims, err := manager.Inspect(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if claims.ActorID != session.ActorID || claims.Username != session.Username || claims.TokenID == "" {
		t.Fatalf("expected claims to match session, got %+v", claims)
	}
	if !claims.ExpiresAt.Equal(clock.now.Add(time.Minute)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestJWTManagerInspectExpiryBoundary(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: issued}
	manager := auth.NewJWTManager("secret", time.Minute, auth.WithClock(clock.Now))

	token, err := manager.Sign(domain.SessionContext{ActorID: "a1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	clock.now = issued.Add(time.Minute - time.Second)
	if _, err := manager.Inspect(token); err != nil {
		t.Fatalf("expected valid just before expiry, got %v", err)
	}

	clock.now = issued.Add(time.Minute)
	claims, err := manager.Inspect(token)
	if !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected expired at exp, got %v", err)
	}
	if claims == nil || claims.ActorID != "a1" {
		t.Fatalf("expired token must carry claims, got %+v", claims)
	}
}

func TestJWTManagerInspectInvalid(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)
	other := auth.NewJWTManager("different", time.Minute)
	foreign := auth.NewJWTManager("secret", time.Minute, auth.WithIssuer("someone-else"))

	otherToken, err := other.Sign(domain.SessionContext{ActorID: "a1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	foreignToken, err := foreign.Sign(domain.SessionContext{ActorID: "a1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	anonymous, err := manager.Sign(domain.SessionContext{})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{ActorID: "a1"})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	valid, _ := manager.Sign(domain.SessionContext{ActorID: "a1"})
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"malformed":        "not-a-token",
		"wrong key":        otherToken,
		"wrong issuer":     foreignToken,
		"missing actor":    anonymous,
		"none algorithm":   noneToken,
		"tampered payload": tampered,
	}

	for name, token := range tests {
		if _, err := manager.Inspect(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestJWTManagerDownloadSignature(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := auth.NewJWTManager("secret", time.Hour,
		auth.WithClock(clock.Now),
		auth.WithDownloadDuration(5*time.Minute),
	)

	sig, err := manager.SignDownload("tok-1", []string{"d1", "d2"})
	if err != nil {
		t.Fatalf("sign download: %v", err)
	}

	ids, err := manager.VerifyDownload("tok-1", sig)
	if err != nil {
		t.Fatalf("verify download: %v", err)
	}
	if len(ids) != 2 || ids[0] != "d1" || ids[1] != "d2" {
		t.Fatalf("unexpected ids %v", ids)
	}

	if _, err := manager.VerifyDownload("tok-2", sig); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected mismatch to fail, got %v", err)
	}

	clock.now = clock.now.Add(10 * time.Minute)
	if _, err := manager.VerifyDownload("tok-1", sig); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected expired signature, got %v", err)
	}

	if _, err := manager.SignDownload("", []string{"d1"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
