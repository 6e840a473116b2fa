package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// InviteService issues and verifies signed room invite tokens. Tokens gate
// joins to private rooms; the match handler verifies them at join time.
type InviteService struct {
	secret string
	issuer string
}

// NewInviteService creates an invite service with the signing secret and issuer.
func NewInviteService(secret, issuer string) *InviteService {
	return &InviteService{secret: secret, issuer: issuer}
}

// InviteClaims are the verified contents of an invite token.
type InviteClaims struct {
	UserID   string
	Room     string
	Spectate bool
}

// Grant issues an HS256 token admitting userID to the named room.
func (s *InviteService) Grant(userID, room string, spectate bool, ttl time.Duration) (string, error) {
	if s == nil {
		return "", fmt.Errorf("invite service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("userID is required")
	}
	if room == "" {
		return "", fmt.Errorf("room is required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("invite config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":      s.issuer,
		"sub":      userID,
		"exp":      time.Now().Add(ttl).Unix(),
		"jti":      fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
		"room":     room,
		"spectate": spectate,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify parses the token and checks it admits userID to the named room.
// Expiry is enforced by the claims validation during parsing.
func (s *InviteService) Verify(tokenString, userID, room string) (*InviteClaims, error) {
	if s == nil {
		return nil, fmt.Errorf("invite service is nil")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse invite token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invite token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invite token claims are malformed")
	}

	sub, _ := claims["sub"].(string)
	claimRoom, _ := claims["room"].(string)
	if sub != userID {
		return nil, fmt.Errorf("invite token not issued for user %s", userID)
	}
	if claimRoom != room {
		return nil, fmt.Errorf("invite token not issued for room %s", room)
	}

	spectate, _ := claims["spectate"].(bool)
	return &InviteClaims{UserID: sub, Room: claimRoom, Spectate: spectate}, nil
}
