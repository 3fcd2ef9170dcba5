// Package authstate holds an account's credential blob in memory: the core
// credentials plus the key-material map the engine reads and writes while
// connected. Durability is the host's job; this package only encodes the
// blob the host persists.
package authstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

var ErrMissingCredentials = errors.New("auth state blob has no credentials")

// blob is the serialized form. []byte values encode as standard base64, so
// binary key material survives the round trip byte for byte.
type blob struct {
	Creds *domain.Credentials `json:"creds"`
	Keys  map[string][]byte   `json:"keys"`
}

type Store struct {
	accountID domain.AccountID

	mu       sync.RWMutex
	creds    domain.Credentials
	keys     map[string][]byte
	revision uint64
}

var _ ports.AuthState = (*Store)(nil)

// Create restores the credential state from prior, or initializes a fresh
// unregistered one when prior is empty or unreadable. It never fails over a
// corrupt blob; restored reports whether prior was used.
func Create(accountID domain.AccountID, prior string) (store *Store, restored bool, err error) {
	if prior != "" {
		if parsed, parseErr := Parse(accountID, prior); parseErr == nil {
			return parsed, true, nil
		}
	}

	creds, err := InitCredentials()
	if err != nil {
		return nil, false, err
	}

	return &Store{
		accountID: accountID,
		creds:     creds,
		keys:      map[string][]byte{},
	}, false, nil
}

// Parse decodes a serialized blob strictly.
func Parse(accountID domain.AccountID, raw string) (*Store, error) {
	var decoded blob
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode auth state: %w", err)
	}
	if decoded.Creds == nil {
		return nil, ErrMissingCredentials
	}
	if decoded.Keys == nil {
		decoded.Keys = map[string][]byte{}
	}

	return &Store{
		accountID: accountID,
		creds:     *decoded.Creds,
		keys:      decoded.Keys,
	}, nil
}

func (s *Store) AccountID() domain.AccountID {
	return s.accountID
}

func (s *Store) Creds() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds
}

func (s *Store) UpdateCreds(fn func(*domain.Credentials)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.creds)
}

func (s *Store) Get(category string, ids []string) map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		if value, ok := s.keys[compositeKey(category, id)]; ok {
			out[id] = value
		}
	}

	return out
}

func (s *Store) Set(records ports.KeyRecords) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for category, byID := range records {
		for id, value := range byID {
			key := compositeKey(category, id)
			if value == nil {
				delete(s.keys, key)
				continue
			}
			s.keys[key] = value
		}
	}
}

// Save is called whenever the engine reports changed credentials.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revision++
}

func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision
}

// KeyCount returns the number of stored key records.
func (s *Store) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}

// Categories counts key records per category prefix known to the engine.
func (s *Store) Categories() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int{}
	for key := range s.keys {
		out[categoryOf(key)]++
	}
	return out
}

// Serialize encodes credentials and keys. Map keys are emitted in sorted
// order, so equal states always produce equal strings.
func (s *Store) Serialize() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds := s.creds
	payload, err := json.Marshal(blob{Creds: &creds, Keys: s.keys})
	if err != nil {
		return "", fmt.Errorf("encode auth state: %w", err)
	}

	return string(payload), nil
}

func compositeKey(category, id string) string {
	return category + "-" + id
}
