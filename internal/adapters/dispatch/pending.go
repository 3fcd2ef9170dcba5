package dispatch

import (
	"sort"
	"sync"
	"time"

	"github.com/bnema/chat-sessiond/internal/domain"
)

// PendingCommand is a command that was accepted and not yet answered.
type PendingCommand struct {
	CommandID  string
	Kind       domain.CommandKind
	ReceivedAt time.Time
}

type pendingSet struct {
	mu    sync.Mutex
	seq   uint64
	items map[uint64]PendingCommand
}

func newPendingSet() *pendingSet {
	return &pendingSet{items: make(map[uint64]PendingCommand)}
}

func (p *pendingSet) add(cmd domain.Command, at time.Time) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.items[p.seq] = PendingCommand{CommandID: cmd.ID, Kind: cmd.Kind, ReceivedAt: at}
	return p.seq
}

// settle removes the entry and reports whether it was still pending.
func (p *pendingSet) settle(key uint64) (PendingCommand, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.items[key]
	if ok {
		delete(p.items, key)
	}
	return item, ok
}

func (p *pendingSet) list() []PendingCommand {
	p.mu.Lock()
	keys := make([]uint64, 0, len(p.items))
	for key := range p.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]PendingCommand, 0, len(keys))
	for _, key := range keys {
		out = append(out, p.items[key])
	}
	p.mu.Unlock()
	return out
}
