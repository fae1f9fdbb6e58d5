package zoom

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AppContext is the identity the embedded client presents on every
// request: which meeting it sits in, who the participant is, and whether
// they are the host. It arrives as a signed token minted when the app is
// opened inside the Zoom client.
type AppContext struct {
	MeetingID     string
	ParticipantID string
	IsHost        bool
}

// ParseAppContext validates the context token and extracts the caller
// identity. Expired or tampered tokens are rejected.
func ParseAppContext(tokenString string, secret []byte) (*AppContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid context token")
	}

	meetingID, _ := (*claims)["mid"].(string)
	participantID, _ := (*claims)["uid"].(string)
	role, _ := (*claims)["role"].(string)
	if meetingID == "" || participantID == "" {
		return nil, fmt.Errorf("context token missing meeting or participant id")
	}

	return &AppContext{
		MeetingID:     meetingID,
		ParticipantID: participantID,
		IsHost:        role == "host",
	}, nil
}

// MintAppContext signs a context token. The production token is minted by
// the Zoom client; this exists for local development and tests.
func MintAppContext(ctx *AppContext, secret []byte, expiresAt int64) (string, error) {
	role := "attendee"
	if ctx.IsHost {
		role = "host"
	}
	claims := jwt.MapClaims{
		"mid":  ctx.MeetingID,
		"uid":  ctx.ParticipantID,
		"role": role,
		"exp":  expiresAt,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
