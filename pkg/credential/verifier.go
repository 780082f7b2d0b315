package credential

import "time"

// Verifier binds the verification functions to one set of configured
// secrets, a token lifetime, and a clock. It holds no mutable state and
// is safe for concurrent use.
type Verifier struct {
	secrets Secrets
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTokenTTL sets the lifetime of issued tokens. Non-positive values
// are ignored.
func WithTokenTTL(ttl time.Duration) Option {
	return func(v *Verifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier creates a Verifier over the given secrets.
func NewVerifier(secrets Secrets, opts ...Option) *Verifier {
	v := &Verifier{
		secrets: secrets,
		ttl:     DefaultTokenTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Secrets returns a copy of the configured secrets.
func (v *Verifier) Secrets() Secrets {
	return v.secrets
}

// TokenTTL returns the lifetime of issued tokens.
func (v *Verifier) TokenTTL() time.Duration {
	return v.ttl
}

// APIKey checks a presented static API key.
func (v *Verifier) APIKey(presented string) bool {
	return VerifyAPIKey(presented, v.secrets.APIKey)
}

// Basic checks a presented Basic auth pair.
func (v *Verifier) Basic(username, password string) bool {
	return VerifyBasic(username, password, v.secrets.BasicUsername, v.secrets.BasicPassword)
}

// ClientPair checks a presented client id/secret pair.
func (v *Verifier) ClientPair(clientID, clientSecret string) bool {
	return VerifyClientPair(clientID, clientSecret, v.secrets.ClientID, v.secrets.ClientSecret)
}

// Bearer verifies a bearer token signed with the client secret.
func (v *Verifier) Bearer(token string) (*Claims, error) {
	return decodeToken(token, v.secrets.ClientSecret, v.now)
}

// Issue mints a token for clientID. It does not check the client
// credentials; callers verify them first with ClientPair.
func (v *Verifier) Issue(clientID string) (string, error) {
	return IssueToken(clientID, v.secrets.ClientSecret, v.ttl, v.now())
}
