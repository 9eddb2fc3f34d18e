package identity

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"billflow/bill"
)

func openHandle(t *testing.T) *Handle {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open handle: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestUserRoundTrip(t *testing.T) {
	h := openHandle(t)

	want := bill.User{Type: "Employee", Email: "a@a"}
	if err := h.SetUser(want); err != nil {
		t.Fatalf("set user: %v", err)
	}

	got, err := h.User()
	if err != nil {
		t.Fatalf("read user: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestUser_NoEntry(t *testing.T) {
	h := openHandle(t)

	if _, err := h.User(); !errors.Is(err, ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
}

func TestUser_EmailFallsBackToTokenClaim(t *testing.T) {
	h := openHandle(t)

	if err := h.SetUser(bill.User{Type: "Employee"}); err != nil {
		t.Fatalf("set user: %v", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "employee@test.tld"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if err := h.SetToken(signed); err != nil {
		t.Fatalf("set token: %v", err)
	}

	got, err := h.User()
	if err != nil {
		t.Fatalf("read user: %v", err)
	}
	if got.Email != "employee@test.tld" {
		t.Fatalf("expected the token email claim, got %q", got.Email)
	}

	stored, err := h.Token()
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if stored != signed {
		t.Fatalf("expected the stored token back")
	}
}
