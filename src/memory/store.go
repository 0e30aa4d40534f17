package memory

import (
	"fmt"
	"sync"
	"time"

	perrors "parlor/src/errors"
)

// UserSpeaker labels lines the user typed inside a persona transcript
const UserSpeaker = "User"

// Entry is a single line of a persona transcript
type Entry struct {
	Speaker string
	Text    string
	At      time.Time
}

// Line renders the entry the way it is sent to the generation service
func (e Entry) Line() string {
	return e.Speaker + ": " + e.Text
}

// Store holds one append-only transcript per registered persona key.
// Keys are fixed at construction; appending to anything else is a bug
// in the caller and is reported as ErrUnknownPersona.
type Store struct {
	mu          sync.RWMutex
	transcripts map[string][]Entry
	now         func() time.Time
}

// NewStore creates an empty transcript for every key
func NewStore(keys []string) *Store {
	s := &Store{
		transcripts: make(map[string][]Entry, len(keys)),
		now:         time.Now,
	}
	for _, k := range keys {
		s.transcripts[k] = nil
	}
	return s
}

// Append adds one entry to the end of a persona's transcript
func (s *Store) Append(persona, speaker, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transcripts[persona]
	if !ok {
		return fmt.Errorf("append to %q: %w", persona, perrors.ErrUnknownPersona)
	}
	s.transcripts[persona] = append(t, Entry{Speaker: speaker, Text: text, At: s.now()})
	return nil
}

// AppendExchange commits a user line and the persona's reply together.
// Either both land or neither does.
func (s *Store) AppendExchange(persona string, user, reply Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transcripts[persona]
	if !ok {
		return fmt.Errorf("append to %q: %w", persona, perrors.ErrUnknownPersona)
	}

	now := s.now()
	if user.At.IsZero() {
		user.At = now
	}
	if reply.At.IsZero() {
		reply.At = now
	}
	s.transcripts[persona] = append(t, user, reply)
	return nil
}

// Read returns a copy of the transcript in insertion order
func (s *Store) Read(persona string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[persona]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", persona, perrors.ErrUnknownPersona)
	}
	out := make([]Entry, len(t))
	copy(out, t)
	return out, nil
}

// Len returns the number of entries for persona, or 0 for unknown keys
func (s *Store) Len(persona string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcripts[persona])
}

// Counts returns the transcript length of every registered key
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.transcripts))
	for k, t := range s.transcripts {
		counts[k] = len(t)
	}
	return counts
}

// Started returns the keys that have at least one entry
func (s *Store) Started() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, t := range s.transcripts {
		if len(t) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}
