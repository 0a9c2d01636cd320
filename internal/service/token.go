package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Check-in tokens are 32 bytes of CSPRNG output, hex-encoded: 64 URL-safe
// characters, 256-bit keyspace. One token per booking serves both the lookup
// handle and the QR payload.
const tokenBytes = 32

func mintToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error minting booking token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
