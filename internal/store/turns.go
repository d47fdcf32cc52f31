package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one message in the visible conversation. Turns are values and are
// never changed after they are appended.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	CreatedAt time.Time `json:"createdAt"`
}

// TurnLog is an append-only, ordered conversation log. There is no way to
// edit, reorder or drop a turn.
type TurnLog struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewTurnLog() *TurnLog {
	return &TurnLog{}
}

// Append adds a turn with a fresh time-ordered ID and returns it.
func (l *TurnLog) Append(text string, isBot bool) Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	// IDs are minted under the lock so ID order matches log order.
	t := Turn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      text,
		IsBot:     isBot,
		CreatedAt: time.Now(),
	}
	l.turns = append(l.turns, t)
	return t
}

// Turns returns a copy of the log in append order.
func (l *TurnLog) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *TurnLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
