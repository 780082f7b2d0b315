package credential

import (
	"errors"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "top-secret"

func TestIssueThenVerify_RoundTrip(t *testing.T) {
	token, err := IssueToken("ivr-client", testSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a compact JWT", token)
	}

	claims, err := DecodeAndVerifyBearer(token, testSecret)
	if err != nil {
		t.Fatalf("DecodeAndVerifyBearer: %v", err)
	}
	if claims.Client != "ivr-client" {
		t.Errorf("Client = %q, want %q", claims.Client, "ivr-client")
	}
	if claims.ExpiresAt == nil {
		t.Fatal("ExpiresAt not set")
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 59*time.Minute || remaining > time.Hour {
		t.Errorf("token expires in %s, want about 1h", remaining)
	}
}

func TestDecodeAndVerifyBearer_WrongSecret(t *testing.T) {
	token, err := IssueToken("ivr-client", testSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = DecodeAndVerifyBearer(token, "another-secret")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDecodeAndVerifyBearer_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, err := IssueToken("ivr-client", testSecret, time.Hour, issuedAt)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	_, err = DecodeAndVerifyBearer(token, testSecret)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
	if !errors.Is(err, gojwt.ErrTokenExpired) {
		t.Errorf("err = %v, want it to wrap ErrTokenExpired", err)
	}
}

func TestDecodeAndVerifyBearer_Malformed(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := DecodeAndVerifyBearer(token, testSecret); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("DecodeAndVerifyBearer(%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestDecodeAndVerifyBearer_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		Client: "ivr-client",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := DecodeAndVerifyBearer(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken for HS512 token", err)
	}

	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none: %v", err)
	}
	if _, err := DecodeAndVerifyBearer(none, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken for alg=none token", err)
	}
}

func TestDecodeAndVerifyBearer_EmptySecret(t *testing.T) {
	token, err := IssueToken("ivr-client", testSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := DecodeAndVerifyBearer(token, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken with no secret configured", err)
	}
}

func TestIssueToken_Errors(t *testing.T) {
	if _, err := IssueToken("ivr-client", "", time.Hour, time.Now()); err == nil {
		t.Error("expected error for empty signing secret")
	}
	if _, err := IssueToken("ivr-client", testSecret, 0, time.Now()); err == nil {
		t.Error("expected error for zero ttl")
	}
}
