package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/keygate/pkg/credential"
)

// Request headers inspected by the default rules.
const (
	HeaderAPIKey        = "X-Api-Key"
	HeaderAuthorization = "Authorization"
	HeaderClientID      = "Clientid"
	HeaderClientSecret  = "Clientsecret"

	basicPrefix  = "Basic "
	bearerPrefix = "Bearer "
)

// FailureMode controls what a rule does when its headers are present but
// the credential does not verify.
type FailureMode int

const (
	// FallThrough lets the next rule try.
	FallThrough FailureMode = iota

	// Reject ends evaluation with the rule's Rejection.
	Reject
)

// Rule is one entry in the resolver's ordered list.
type Rule struct {
	Scheme Scheme

	// Applies reports whether the request carries this rule's headers.
	Applies func(h http.Header) bool

	// Verify checks the credential. A nil error means accepted.
	Verify func(h http.Header) (*Identity, error)

	OnFailure FailureMode

	// Rejection is returned when OnFailure is Reject.
	Rejection *Rejection
}

// Evaluate applies the rule to a header set.
func (r Rule) Evaluate(h http.Header) AuthResult {
	if !r.Applies(h) {
		return AuthResult{Decision: Abstain}
	}

	id, err := r.Verify(h)
	if err == nil {
		if id == nil {
			id = &Identity{}
		}
		id.Scheme = r.Scheme
		return AuthResult{Decision: Yes, Scheme: r.Scheme, Identity: id}
	}

	if r.OnFailure == FallThrough {
		return AuthResult{Decision: Abstain}
	}

	rej := r.Rejection
	if rej == nil {
		rej = ErrUnauthorized
	}
	return AuthResult{
		Decision: No,
		Scheme:   r.Scheme,
		Err:      fmt.Errorf("%w: %w", rej, err),
	}
}

var (
	errMismatch     = errors.New("credential mismatch")
	errMissingColon = errors.New("basic credentials missing ':' separator")
	errEmptyBearer  = errors.New("empty bearer token")
)

// APIKeyRule matches the x-api-key header against the configured key.
func APIKeyRule(v *credential.Verifier) Rule {
	return Rule{
		Scheme: SchemeAPIKey,
		Applies: func(h http.Header) bool {
			return h.Get(HeaderAPIKey) != ""
		},
		Verify: func(h http.Header) (*Identity, error) {
			if !v.APIKey(h.Get(HeaderAPIKey)) {
				return nil, errMismatch
			}
			return &Identity{}, nil
		},
		OnFailure: FallThrough,
		Rejection: ErrInvalidAPIKey,
	}
}

// BasicRule matches an "Authorization: Basic ..." header against the
// configured username and password.
func BasicRule(v *credential.Verifier) Rule {
	return Rule{
		Scheme: SchemeBasic,
		Applies: func(h http.Header) bool {
			return strings.HasPrefix(h.Get(HeaderAuthorization), basicPrefix)
		},
		Verify: func(h http.Header) (*Identity, error) {
			user, pass, err := parseBasic(h.Get(HeaderAuthorization))
			if err != nil {
				return nil, err
			}
			if !v.Basic(user, pass) {
				return nil, errMismatch
			}
			return &Identity{}, nil
		},
		OnFailure: FallThrough,
		Rejection: ErrInvalidBasicCredentials,
	}
}

// BearerRule verifies an "Authorization: Bearer ..." token signed with the
// client secret.
func BearerRule(v *credential.Verifier) Rule {
	return Rule{
		Scheme: SchemeBearer,
		Applies: func(h http.Header) bool {
			return strings.HasPrefix(h.Get(HeaderAuthorization), bearerPrefix)
		},
		Verify: func(h http.Header) (*Identity, error) {
			token := strings.TrimSpace(strings.TrimPrefix(h.Get(HeaderAuthorization), bearerPrefix))
			if token == "" {
				return nil, errEmptyBearer
			}
			claims, err := v.Bearer(token)
			if err != nil {
				return nil, err
			}
			return &Identity{Claims: claims}, nil
		},
		OnFailure: Reject,
		Rejection: ErrInvalidBearerToken,
	}
}

// ClientCredentialsRule verifies the clientid/clientsecret header pair and
// mints a token for the caller. It applies only when both headers are set.
func ClientCredentialsRule(v *credential.Verifier) Rule {
	return Rule{
		Scheme: SchemeClient,
		Applies: func(h http.Header) bool {
			return h.Get(HeaderClientID) != "" && h.Get(HeaderClientSecret) != ""
		},
		Verify: func(h http.Header) (*Identity, error) {
			id, secret := h.Get(HeaderClientID), h.Get(HeaderClientSecret)
			if !v.ClientPair(id, secret) {
				return nil, errMismatch
			}
			token, err := v.Issue(id)
			if err != nil {
				return nil, err
			}
			return &Identity{IssuedToken: token}, nil
		},
		OnFailure: Reject,
		Rejection: ErrInvalidClientCredentials,
	}
}

// DefaultRules returns the standard evaluation order. API key and Basic
// mismatches fall through to the later rules.
func DefaultRules(v *credential.Verifier) []Rule {
	return []Rule{
		APIKeyRule(v),
		BasicRule(v),
		BearerRule(v),
		ClientCredentialsRule(v),
	}
}

// StrictRules is DefaultRules with every mismatch rejecting.
func StrictRules(v *credential.Verifier) []Rule {
	rules := DefaultRules(v)
	for i := range rules {
		rules[i].OnFailure = Reject
	}
	return rules
}

// New builds a resolver over the default or strict rule set.
func New(v *credential.Verifier, strict bool) *Resolver {
	if strict {
		return NewResolver(StrictRules(v)...)
	}
	return NewResolver(DefaultRules(v)...)
}

func parseBasic(header string) (string, string, error) {
	encoded := strings.TrimSpace(strings.TrimPrefix(header, basicPrefix))
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decoding basic credentials: %w", err)
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", errMissingColon
	}
	return user, pass, nil
}
