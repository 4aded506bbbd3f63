package credentials

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const accessSubject = "access"

var (
	ErrNoSigningKey = errors.New("either a jwt secret or an rsa key pair is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Principal is the identity a session token carries.
type Principal struct {
	AdminId string `json:"admin_id"`
	OrgId   string `json:"org_id"`
}

type Config struct {
	// Secret selects HS256 signing. Ignored when PrivateKey is set.
	Secret     string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	ExpireIn   time.Duration
}

// Service hashes admin passwords and issues/verifies signed session tokens.
type Service struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	expireIn  time.Duration
	now       func() time.Time
}

func NewService(c Config) (*Service, error) {
	s := &Service{
		expireIn: c.ExpireIn,
		now:      time.Now,
	}
	if s.expireIn <= 0 {
		s.expireIn = 24 * time.Hour
	}

	switch {
	case c.PrivateKey != nil:
		s.method = jwt.SigningMethodRS256
		s.signKey = c.PrivateKey
		if c.PublicKey != nil {
			s.verifyKey = c.PublicKey
		} else {
			s.verifyKey = &c.PrivateKey.PublicKey
		}
	case len(c.Secret) > 0:
		s.method = jwt.SigningMethodHS256
		s.signKey = []byte(c.Secret)
		s.verifyKey = []byte(c.Secret)
	default:
		return nil, ErrNoSigningKey
	}

	return s, nil
}

func (s *Service) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (s *Service) Verify(password, hash string) bool {
	return VerifyHash(password, hash)
}

func (s *Service) ExpireIn() time.Duration {
	return s.expireIn
}

// IssueToken signs a token binding the principal. It returns the token and its expiry.
func (s *Service) IssueToken(p Principal) (string, time.Time, error) {
	now := s.now().UTC()
	expiry := now.Add(s.expireIn)

	token, err := jwt.NewWithClaims(s.method, jwt.MapClaims{
		"admin_id": p.AdminId,
		"org_id":   p.OrgId,
		"sub":      accessSubject,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      expiry.Unix(),
	}).SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiry, nil
}

// VerifyToken checks signature, algorithm, expiry and subject and returns the bound principal.
func (s *Service) VerifyToken(raw string) (*Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, fmt.Errorf("unexpected method: %s", t.Header["alg"])
		}
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if sub, _ := claims["sub"].(string); sub != accessSubject {
		return nil, ErrInvalidToken
	}

	adminId, _ := claims["admin_id"].(string)
	orgId, _ := claims["org_id"].(string)
	if adminId == "" || orgId == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{AdminId: adminId, OrgId: orgId}, nil
}
