package middleware

import (
	"context"
	"fmt"
	"strings"
)

const devTokenPrefix = "dev:"

// DevTokenVerifier accepts "dev:<uid>" tokens. It is only wired for the in-memory
// store in development, where no Firebase project is available.
type DevTokenVerifier struct{}

func (DevTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, devTokenPrefix) || len(token) == len(devTokenPrefix) {
		return "", fmt.Errorf("not a development token")
	}
	return strings.TrimPrefix(token, devTokenPrefix), nil
}

// DevToken builds the token DevTokenVerifier accepts for uid.
func DevToken(uid string) string {
	return devTokenPrefix + uid
}
