package ports

import "github.com/bnema/chat-sessiond/internal/domain"

type EventSink interface {
	Emit(event domain.Event) error
}
