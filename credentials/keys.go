package credentials

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt"
)

// Keys are passed through the environment as base64 encoded PEM blocks.
func decodeBase64(message string) ([]byte, error) {
	if out, err := base64.StdEncoding.DecodeString(message); err == nil {
		return out, nil
	}
	return base64.URLEncoding.DecodeString(message)
}

func ParsePublicKey(key string) (*rsa.PublicKey, error) {
	pem, err := decodeBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode jwt public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt public key: %w", err)
	}
	return publicKey, nil
}

func ParsePrivateKey(key string) (*rsa.PrivateKey, error) {
	pem, err := decodeBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode jwt private key: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt private key: %w", err)
	}
	return privateKey, nil
}
