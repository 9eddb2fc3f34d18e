// Package identity stores the logged-in user entry and session token the
// way the front end keeps them: a small key-value handle, read-only from
// the record components.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	bolt "go.etcd.io/bbolt"

	"billflow/bill"
)

var (
	// ErrNoUser is returned when no user entry has been stored.
	ErrNoUser = errors.New("identity: no stored user")
)

const (
	bucketSession = "session"
	keyUser       = "user"
	keyToken      = "jwt"
)

// Handle is a bbolt-backed session store with a `user` entry and the
// backend-issued token. One handle serves one logged-in session.
type Handle struct {
	db *bolt.DB
}

func Open(path string) (*Handle, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSession))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identity: init bucket: %w", err)
	}

	return &Handle{db: db}, nil
}

func (h *Handle) Close() error {
	return h.db.Close()
}

// SetUser stores the user entry. Called by the session bootstrap, which is
// outside this module's components.
func (h *Handle) SetUser(u bill.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("identity: marshal user: %w", err)
	}
	return h.put(keyUser, data)
}

// SetToken stores the backend-issued session token.
func (h *Handle) SetToken(token string) error {
	return h.put(keyToken, []byte(token))
}

// User returns the stored user entry. When the entry carries no email, the
// email claim of the session token is used instead; the token was issued
// by the backend, so it is decoded without re-verification here.
func (h *Handle) User() (bill.User, error) {
	raw, err := h.get(keyUser)
	if err != nil {
		return bill.User{}, err
	}
	if raw == nil {
		return bill.User{}, ErrNoUser
	}

	var u bill.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return bill.User{}, fmt.Errorf("identity: decode user entry: %w", err)
	}

	if u.Email == "" {
		if email, err := h.emailFromToken(); err == nil {
			u.Email = email
		}
	}
	return u, nil
}

// Token returns the stored session token, or "" when none is set.
func (h *Handle) Token() (string, error) {
	raw, err := h.get(keyToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (h *Handle) emailFromToken() (string, error) {
	raw, err := h.get(keyToken)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("identity: no stored token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(raw), claims); err != nil {
		return "", fmt.Errorf("identity: decode token: %w", err)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return "", errors.New("identity: token carries no email claim")
	}
	return email, nil
}

func (h *Handle) put(key string, value []byte) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Put([]byte(key), value)
	})
}

func (h *Handle) get(key string) ([]byte, error) {
	var out []byte
	err := h.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketSession)).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: read %s: %w", key, err)
	}
	return out, nil
}
