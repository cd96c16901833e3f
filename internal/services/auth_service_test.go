package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuthenticate(t *testing.T) {
	svc := NewAuthService(zerolog.Nop(), "go-tasks", testSigningKey)
	now := time.Now()

	valid := jwt.RegisteredClaims{
		Issuer:    "go-tasks",
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	t.Run("valid", func(t *testing.T) {
		identity, err := svc.Authenticate(signToken(t, jwt.SigningMethodHS256, testSigningKey, valid))
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if identity.UserID != "alice" {
			t.Fatalf("UserID = %q, want alice", identity.UserID)
		}
	})

	rejected := map[string]func() string{
		"garbage": func() string { return "not-a-token" },
		"wrong key": func() string {
			return signToken(t, jwt.SigningMethodHS256, []byte("other"), valid)
		},
		"expired": func() string {
			c := valid
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
			return signToken(t, jwt.SigningMethodHS256, testSigningKey, c)
		},
		"no expiry": func() string {
			c := valid
			c.ExpiresAt = nil
			return signToken(t, jwt.SigningMethodHS256, testSigningKey, c)
		},
		"wrong issuer": func() string {
			c := valid
			c.Issuer = "someone-else"
			return signToken(t, jwt.SigningMethodHS256, testSigningKey, c)
		},
		"no subject": func() string {
			c := valid
			c.Subject = ""
			return signToken(t, jwt.SigningMethodHS256, testSigningKey, c)
		},
		"other hmac": func() string {
			return signToken(t, jwt.SigningMethodHS512, testSigningKey, valid)
		},
		"none": func() string {
			return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)
		},
	}
	for name, token := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(token())
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestAuthenticateWithoutIssuer(t *testing.T) {
	svc := NewAuthService(zerolog.Nop(), "", testSigningKey)
	token := signToken(t, jwt.SigningMethodHS256, testSigningKey, jwt.RegisteredClaims{
		Issuer:    "anyone",
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	identity, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if identity.UserID != "bob" {
		t.Fatalf("UserID = %q, want bob", identity.UserID)
	}
}

func TestAuthenticateRejectsEmptySigningKey(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(""), jwt.RegisteredClaims{
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	for _, key := range [][]byte{nil, {}} {
		svc := NewAuthService(zerolog.Nop(), "", key)
		identity, err := svc.Authenticate(token)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate() = %+v, %v, want ErrUnauthorized", identity, err)
		}
	}
}
