package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// DefaultStateTTL bounds how long a connect link stays usable.
const DefaultStateTTL = 10 * time.Minute

// ErrInvalidState is returned when a callback carries a forged, foreign or expired state.
var ErrInvalidState = errors.New("invalid oauth state")

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.StandardClaims
}

// StateSigner issues and verifies the OAuth state parameter as an HS256 token.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateSigner returns a signer for key. An empty key gets a random one,
// which is enough for the in-process connect flow.
func NewStateSigner(key string, ttl time.Duration) *StateSigner {
	if key == "" {
		key = uuid.NewString() + uuid.NewString()
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateSigner{key: []byte(key), ttl: ttl, now: time.Now}
}

// Issue returns a fresh signed state.
func (s *StateSigner) Issue() (string, error) {
	now := s.now()
	claims := &stateClaims{
		Nonce: uuid.NewString(),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
			Issuer:    "clubstats",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of state.
func (s *StateSigner) Verify(state string) error {
	claims := &stateClaims{}
	tkn, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !tkn.Valid || claims.Nonce == "" {
		return ErrInvalidState
	}
	return nil
}
