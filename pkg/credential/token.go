package credential

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = time.Hour

// ErrInvalidToken is returned for any bearer token that fails verification:
// bad signature, malformed structure, unexpected algorithm, or expiry.
var ErrInvalidToken = errors.New("invalid token")

// signingMethod is the only algorithm tokens are signed or accepted with.
var signingMethod = gojwt.SigningMethodHS256

// Claims is the payload of an issued token.
type Claims struct {
	// Client is the client identifier the token was issued to.
	Client string `json:"client"`

	gojwt.RegisteredClaims
}

// IssueToken signs a token for clientID that expires ttl after now.
func IssueToken(clientID, signingSecret string, ttl time.Duration, now time.Time) (string, error) {
	if signingSecret == "" {
		return "", errors.New("credential: signing secret is empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("credential: token ttl must be positive, got %s", ttl)
	}

	claims := &Claims{
		Client: clientID,
		RegisteredClaims: gojwt.RegisteredClaims{
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := gojwt.NewWithClaims(signingMethod, claims).SignedString([]byte(signingSecret))
	if err != nil {
		return "", fmt.Errorf("credential: sign token: %w", err)
	}
	return signed, nil
}

// DecodeAndVerifyBearer verifies the signature and expiry of token against
// signingSecret and returns its claims. Every failure wraps ErrInvalidToken.
func DecodeAndVerifyBearer(token, signingSecret string) (*Claims, error) {
	return decodeToken(token, signingSecret, time.Now)
}

func decodeToken(token, signingSecret string, now func() time.Time) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	if signingSecret == "" {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(signingSecret), nil
	},
		gojwt.WithValidMethods([]string{signingMethod.Alg()}),
		gojwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
