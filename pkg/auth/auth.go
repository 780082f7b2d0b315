package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/keygate/pkg/credential"
)

// Scheme names the authentication mechanism that accepted a request.
type Scheme string

const (
	SchemeAPIKey Scheme = "api-key"
	SchemeBasic  Scheme = "basic-auth"
	SchemeBearer Scheme = "oauth2-bearer"
	SchemeClient Scheme = "oauth2-client"
)

// AuthDecision represents the three possible outcomes of evaluating a rule.
type AuthDecision int

const (
	// Yes means credentials are valid. Evaluation stops and the identity is used.
	Yes AuthDecision = iota

	// No means the request is rejected. Evaluation stops.
	No

	// Abstain means the rule did not decide: its headers were absent, or
	// they were present but wrong and the rule falls through.
	Abstain
)

func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision

	// Scheme is the rule that decided. Empty when no rule matched.
	Scheme Scheme

	// Identity is populated only when Decision == Yes.
	Identity *Identity

	// Err is populated only when Decision == No. It always wraps a
	// *Rejection, and may also wrap the verification cause.
	Err error
}

// Identity represents an authenticated caller for the lifetime of one request.
type Identity struct {
	// Scheme is the mechanism that accepted the request.
	Scheme Scheme

	// Claims is the decoded token payload for bearer authentication.
	Claims *credential.Claims

	// IssuedToken is a freshly minted token for client credential
	// authentication.
	IssuedToken string
}

// Rejection is the response a rejected request receives.
type Rejection struct {
	Status  int
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Rejections surfaced to clients. The messages are part of the wire contract.
var (
	ErrUnauthorized             = &Rejection{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrInvalidBearerToken       = &Rejection{Status: http.StatusUnauthorized, Message: "Invalid bearer token"}
	ErrInvalidClientCredentials = &Rejection{Status: http.StatusUnauthorized, Message: "Invalid client credentials"}

	// Only produced by StrictRules.
	ErrInvalidAPIKey           = &Rejection{Status: http.StatusUnauthorized, Message: "Invalid API key"}
	ErrInvalidBasicCredentials = &Rejection{Status: http.StatusUnauthorized, Message: "Invalid basic credentials"}
)

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Resolver evaluates rules in order. It stops on the first Yes or No;
// if every rule abstains the request is rejected with ErrUnauthorized.
type Resolver struct {
	// Rules are evaluated first to last.
	Rules []Rule
}

// NewResolver creates a Resolver over the given rules.
func NewResolver(rules ...Rule) *Resolver {
	return &Resolver{Rules: rules}
}

// Resolve runs the rules against a header set.
func (res *Resolver) Resolve(h http.Header) AuthResult {
	for _, rule := range res.Rules {
		result := rule.Evaluate(h)
		if result.Decision != Abstain {
			return result
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrUnauthorized,
	}
}

// Authenticate implements Authenticator over the request headers.
func (res *Resolver) Authenticate(_ context.Context, r *http.Request) AuthResult {
	return res.Resolve(r.Header)
}
