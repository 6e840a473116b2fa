package app

import (
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func parseInviteClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("token claims are not MapClaims")
	}
	return claims
}

func TestInviteGrantAndVerify(t *testing.T) {
	svc := NewInviteService("secret", "tycoon-test")

	token, err := svc.Grant("user-1", "alpha", false, time.Minute)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}

	claims, err := svc.Verify(token, "user-1", "alpha")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Room != "alpha" || claims.Spectate {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestInviteSpectateClaimCarried(t *testing.T) {
	svc := NewInviteService("secret", "tycoon-test")

	token, err := svc.Grant("user-1", "alpha", true, time.Minute)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	claims, err := svc.Verify(token, "user-1", "alpha")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.Spectate {
		t.Fatal("spectate flag must round-trip")
	}
}

func TestInviteGrantValidation(t *testing.T) {
	tests := []struct {
		name string
		svc  *InviteService
		user string
		room string
	}{
		{"NilService", nil, "user-1", "alpha"},
		{"MissingUser", NewInviteService("secret", "iss"), "", "alpha"},
		{"MissingRoom", NewInviteService("secret", "iss"), "user-1", ""},
		{"MissingSecret", NewInviteService("", "iss"), "user-1", "alpha"},
		{"MissingIssuer", NewInviteService("secret", ""), "user-1", "alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.Grant(tt.user, tt.room, false, time.Minute); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestInviteVerifyRejections(t *testing.T) {
	svc := NewInviteService("secret", "tycoon-test")
	token, err := svc.Grant("user-1", "alpha", false, time.Minute)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}

	t.Run("WrongUser", func(t *testing.T) {
		if _, err := svc.Verify(token, "user-2", "alpha"); err == nil {
			t.Fatal("expected rejection for a different user")
		}
	})
	t.Run("WrongRoom", func(t *testing.T) {
		if _, err := svc.Verify(token, "user-1", "beta"); err == nil {
			t.Fatal("expected rejection for a different room")
		}
	})
	t.Run("WrongSecret", func(t *testing.T) {
		other := NewInviteService("other-secret", "tycoon-test")
		if _, err := other.Verify(token, "user-1", "alpha"); err == nil {
			t.Fatal("expected rejection for a bad signature")
		}
	})
	t.Run("Expired", func(t *testing.T) {
		expired, err := svc.Grant("user-1", "alpha", false, -time.Minute)
		if err != nil {
			t.Fatalf("Grant: %v", err)
		}
		if _, err := svc.Verify(expired, "user-1", "alpha"); err == nil {
			t.Fatal("expected rejection for an expired token")
		}
	})
	t.Run("Garbage", func(t *testing.T) {
		if _, err := svc.Verify("not-a-token", "user-1", "alpha"); err == nil {
			t.Fatal("expected rejection for malformed input")
		}
	})
}

func TestInviteTokensCarryUniqueIDs(t *testing.T) {
	svc := NewInviteService("secret", "tycoon-test")

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		token, err := svc.Grant("user-1", "alpha", false, time.Minute)
		if err != nil {
			t.Fatalf("Grant: %v", err)
		}
		claims := parseInviteClaims(t, token, "secret")
		jti, _ := claims["jti"].(string)
		if jti == "" {
			t.Fatal("token is missing a jti claim")
		}
		if seen[jti] {
			t.Fatalf("duplicate jti %q", jti)
		}
		seen[jti] = true
	}
}
