package credentials

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func encodedKeyPair(t *testing.T) (private, public string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePem := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	publicDer, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPem := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDer})

	return base64.StdEncoding.EncodeToString(privatePem), base64.StdEncoding.EncodeToString(publicPem)
}

func TestNewService(t *testing.T) {
	_, err := NewService(Config{})
	require.ErrorIs(t, err, ErrNoSigningKey)

	s, err := NewService(Config{Secret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.ExpireIn())
}

func TestTokens(t *testing.T) {
	principal := Principal{AdminId: "admin-1", OrgId: "org-1"}

	t.Run("hs256 round trip", func(t *testing.T) {
		s, err := NewService(Config{Secret: "secret", ExpireIn: time.Hour})
		require.NoError(t, err)

		raw, expiry, err := s.IssueToken(principal)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

		got, err := s.VerifyToken(raw)
		require.NoError(t, err)
		assert.Equal(t, principal, *got)
	})

	t.Run("rs256 round trip", func(t *testing.T) {
		private, public := encodedKeyPair(t)
		privateKey, err := ParsePrivateKey(private)
		require.NoError(t, err)
		publicKey, err := ParsePublicKey(public)
		require.NoError(t, err)

		s, err := NewService(Config{PrivateKey: privateKey, PublicKey: publicKey})
		require.NoError(t, err)

		raw, _, err := s.IssueToken(principal)
		require.NoError(t, err)

		got, err := s.VerifyToken(raw)
		require.NoError(t, err)
		assert.Equal(t, principal, *got)
	})

	t.Run("rejects tokens of another secret", func(t *testing.T) {
		issuer, err := NewService(Config{Secret: "one"})
		require.NoError(t, err)
		verifier, err := NewService(Config{Secret: "two"})
		require.NoError(t, err)

		raw, _, err := issuer.IssueToken(principal)
		require.NoError(t, err)

		_, err = verifier.VerifyToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects another algorithm", func(t *testing.T) {
		private, _ := encodedKeyPair(t)
		privateKey, err := ParsePrivateKey(private)
		require.NoError(t, err)

		rs, err := NewService(Config{PrivateKey: privateKey})
		require.NoError(t, err)
		hs, err := NewService(Config{Secret: "secret"})
		require.NoError(t, err)

		raw, _, err := hs.IssueToken(principal)
		require.NoError(t, err)

		_, err = rs.VerifyToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		s, err := NewService(Config{Secret: "secret", ExpireIn: time.Hour})
		require.NoError(t, err)
		s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		raw, _, err := s.IssueToken(principal)
		require.NoError(t, err)

		_, err = s.VerifyToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects tokens without principal", func(t *testing.T) {
		s, err := NewService(Config{Secret: "secret"})
		require.NoError(t, err)

		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "refresh",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = s.VerifyToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = s.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$")

	assert.True(t, VerifyHash("secret1", hash))
	assert.False(t, VerifyHash("secret2", hash))
	assert.False(t, VerifyHash("secret1", "garbage"))

	other, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ")

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), 10)
	require.NoError(t, err)
	assert.True(t, VerifyHash("secret1", string(legacy)))
	assert.False(t, VerifyHash("wrong", string(legacy)))
}

func TestParseKeys(t *testing.T) {
	_, err := ParsePublicKey("!!!")
	assert.Error(t, err)
	_, err = ParsePrivateKey(base64.StdEncoding.EncodeToString([]byte("not pem")))
	assert.Error(t, err)
}
