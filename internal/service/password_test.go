package service

import (
	"errors"
	"strings"
	"testing"

	"todo_webapp/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	d1, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	d2, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if d1 == d2 {
		t.Fatalf("two hashes of the same password are equal; salt not random")
	}
	if d1 == "pw1" || strings.Contains(d1, "pw1") {
		t.Fatalf("digest leaks plaintext: %s", d1)
	}
	if !h.Verify("pw1", d1) || !h.Verify("pw1", d2) {
		t.Fatalf("verify rejected matching password")
	}
	if h.Verify("pw2", d1) {
		t.Fatalf("verify accepted wrong password")
	}
}

func TestBcryptHasherMalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	for _, digest := range []string{"", "not-a-hash", "$2a$04$short", "pw"} {
		if h.Verify("pw", digest) {
			t.Fatalf("verify accepted malformed digest %q", digest)
		}
	}
}

func TestBcryptHasherRejectsLongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", 73))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v; want ErrValidation", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	if h := NewBcryptHasher(100); h.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d; want default", h.cost)
	}
}
