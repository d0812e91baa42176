// Package liststore owns the in-memory todo collection and mirrors it to a
// key/value store after every change.
//
// All transitions are copy-on-write: a mutation builds a new collection,
// persists it, and only then makes it current. A failed write leaves both
// memory and storage at the previous value.
package liststore

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/snapshot"
	"github.com/Makepad-fr/tada/internal/store"
)

const (
	// ListKey holds the JSON snapshot of the collection.
	ListKey = "list"
	// SeqKey holds the last id handed out under SequenceIDs.
	SeqKey = "list.seq"
)

// ErrIDsExhausted is returned by Add when the next id would not fit in an int.
var ErrIDsExhausted = errors.New("no ids left")

// IDPolicy picks how Add numbers new entries.
type IDPolicy int

const (
	// SequenceIDs draws from a persisted counter that only grows, so ids
	// stay unique after deletions.
	SequenceIDs IDPolicy = iota
	// CountIDs uses len(collection)+1. Ids can collide once an entry has
	// been deleted; kept for data written by older versions.
	CountIDs
)

// ParseIDPolicy maps "sequence" and "count" to their policy.
func ParseIDPolicy(s string) (IDPolicy, error) {
	switch s {
	case "", "sequence":
		return SequenceIDs, nil
	case "count":
		return CountIDs, nil
	}
	return 0, fmt.Errorf("unknown id policy %q (want sequence or count)", s)
}

func (p IDPolicy) String() string {
	if p == CountIDs {
		return "count"
	}
	return "sequence"
}

// Option configures a Store.
type Option func(*Store)

// WithIDPolicy sets the id policy. The default is SequenceIDs.
func WithIDPolicy(p IDPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithStrictLoad makes Initialize return decode errors instead of falling
// back to the seed set.
func WithStrictLoad() Option {
	return func(s *Store) { s.strict = true }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store holds the current collection and the draft input text.
// It is meant to be driven from a single goroutine (one UI event at a time).
type Store struct {
	kv     store.KV
	policy IDPolicy
	strict bool
	log    *slog.Logger

	list      model.Collection
	draft     string
	lastID    int
	listeners []func(model.Collection)
}

// New returns a Store persisting through kv. Call Initialize before use.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:   kv,
		log:  slog.Default(),
		list: model.Collection{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted collection, or the seed set when nothing
// usable is stored. It clears the draft and does not write.
func (s *Store) Initialize() (model.Collection, error) {
	raw, ok, err := s.kv.Get(ListKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ListKey, err)
	}

	list := model.Seed()
	if ok && raw != "" {
		decoded, err := snapshot.Decode(raw)
		switch {
		case err == nil:
			list = decoded
		case s.strict:
			return nil, fmt.Errorf("load %s: %w", ListKey, err)
		default:
			s.log.Warn("stored list unreadable, starting from defaults", "key", ListKey, "err", err)
		}
	}

	lastID := 0
	if s.policy == SequenceIDs {
		lastID, err = s.readSeq()
		if err != nil {
			return nil, err
		}
	}

	s.list = list
	s.lastID = max(lastID, list.MaxID())
	s.draft = ""
	s.log.Debug("list loaded", "entries", len(list), "last_id", s.lastID, "id_policy", s.policy)
	return list.Clone(), nil
}

func (s *Store) readSeq() (int, error) {
	raw, ok, err := s.kv.Get(SeqKey)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", SeqKey, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.log.Warn("ignoring unreadable id counter", "key", SeqKey, "value", raw)
		return 0, nil
	}
	return n, nil
}

// Entries returns a copy of the current collection.
func (s *Store) Entries() model.Collection { return s.list.Clone() }

// Draft is the text being composed for the next Add.
func (s *Store) Draft() string { return s.draft }

// SetDraft replaces the draft text. It is never persisted.
func (s *Store) SetDraft(text string) { s.draft = text }

// OnChange registers fn to run after every committed mutation.
func (s *Store) OnChange(fn func(model.Collection)) {
	s.listeners = append(s.listeners, fn)
}

// Add appends a new, not-done entry with the given text and clears the
// draft. Text is stored as given, empty included, except that invalid
// UTF-8 bytes become U+FFFD the same way the JSON snapshot writes them.
func (s *Store) Add(text string) (model.Collection, error) {
	text = string([]rune(text))
	id := len(s.list) + 1
	if s.policy == SequenceIDs {
		last := max(s.lastID, s.list.MaxID())
		if last == math.MaxInt {
			return nil, fmt.Errorf("add: %w", ErrIDsExhausted)
		}
		id = last + 1
	}
	next := s.list.Append(model.Entry{Text: text, Done: false, ID: id})
	if err := s.commit("add", next, id); err != nil {
		return nil, err
	}
	s.draft = ""
	return s.Entries(), nil
}

// Submit adds the current draft. It is what the submit key triggers.
func (s *Store) Submit() (model.Collection, error) {
	return s.Add(s.draft)
}

// MarkDone sets done on every entry with id. An unknown id leaves the
// entries as they were; the unchanged list is still written.
func (s *Store) MarkDone(id int) (model.Collection, error) {
	if err := s.commit("mark done", s.list.WithDone(id), s.lastID); err != nil {
		return nil, err
	}
	return s.Entries(), nil
}

// Delete removes every entry with id, keeping the order of the rest.
// An unknown id is not an error.
func (s *Store) Delete(id int) (model.Collection, error) {
	if err := s.commit("delete", s.list.Without(id), s.lastID); err != nil {
		return nil, err
	}
	return s.Entries(), nil
}

// commit persists next and makes it current. The counter goes first: a
// counter ahead of the list wastes an id, one behind it would reuse one.
func (s *Store) commit(op string, next model.Collection, lastID int) error {
	raw, err := snapshot.Encode(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.policy == SequenceIDs && lastID != s.lastID {
		if err := s.kv.Set(SeqKey, strconv.Itoa(lastID)); err != nil {
			return fmt.Errorf("%s: save %s: %w", op, SeqKey, err)
		}
	}
	if err := s.kv.Set(ListKey, raw); err != nil {
		return fmt.Errorf("%s: save %s: %w", op, ListKey, err)
	}

	s.list = next
	s.lastID = max(s.lastID, lastID)
	s.log.Debug("list saved", "op", op, "entries", len(next))

	for _, fn := range s.listeners {
		fn(next.Clone())
	}
	return nil
}
