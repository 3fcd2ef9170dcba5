package ports

import "github.com/bnema/chat-sessiond/internal/domain"

// KeyRecords groups key material by category, then by id. A nil record in a
// Set call deletes that key.
type KeyRecords map[string]map[string][]byte

// AuthState is the credential capability handed to the engine on connect.
type AuthState interface {
	Creds() domain.Credentials
	UpdateCreds(fn func(*domain.Credentials))
	Get(category string, ids []string) map[string][]byte
	Set(records KeyRecords)
}

// CredentialStore is the supervisor's handle on one account's credential
// state: the engine-facing AuthState plus persistence hooks.
type CredentialStore interface {
	AuthState
	Save()
	Serialize() (string, error)
}

type CredentialOpener interface {
	// Open restores the state from prior, falling back to fresh credentials
	// when prior is empty or unreadable.
	Open(accountID domain.AccountID, prior string) (CredentialStore, error)
}
