package authstate

import (
	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/rs/zerolog"
)

// Opener hands out stores to the supervisor. A blob that fails to parse is
// replaced by fresh credentials and only noted at debug level.
type Opener struct {
	Logger zerolog.Logger
}

var _ ports.CredentialOpener = Opener{}

func (o Opener) Open(accountID domain.AccountID, prior string) (ports.CredentialStore, error) {
	store, restored, err := Create(accountID, prior)
	if err != nil {
		return nil, err
	}
	if prior != "" && !restored {
		o.Logger.Debug().
			Str("account_id", string(accountID)).
			Msg("cached auth state unreadable, starting unauthenticated")
	}
	return store, nil
}
