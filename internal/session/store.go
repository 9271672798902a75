package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Entry is a stored session together with the collection it edits
type Entry struct {
	Collection string
	Session    *Session
}

// Store keeps dashboard sessions in memory and drops them after ttl of inactivity.
type Store struct {
	items *gocache.Cache
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{items: gocache.New(ttl, ttl/2)}
}

// Put stores the entry and returns its handle.
func (s *Store) Put(e Entry) string {
	id := uuid.NewString()
	s.items.SetDefault(id, e)
	return id
}

// Get returns the entry and extends its lifetime.
func (s *Store) Get(id string) (Entry, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return Entry{}, false
	}
	e := v.(Entry)
	s.items.SetDefault(id, e)
	return e, true
}

// Delete cancels the session and forgets it.
func (s *Store) Delete(id string) {
	if e, ok := s.Get(id); ok {
		e.Session.Cancel()
	}
	s.items.Delete(id)
}

func (s *Store) Len() int {
	return s.items.ItemCount()
}
