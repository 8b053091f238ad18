// Package session holds in-progress conversation drafts, one per user.
// Drafts live only in memory; abandoned ones are evicted after a TTL so
// the store stays bounded.
package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateAwaitingInstrument State = iota
	StateAwaitingCondition
	StateAwaitingPrice
	StateAwaitingSelection
)

// Draft is a partially collected alert (or a pending delete selection).
type Draft struct {
	State      State
	Instrument string
	Condition  string
	UpdatedAt  time.Time
}

type Store struct {
	mu     sync.Mutex
	drafts map[int64]Draft
	ttl    time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		drafts: make(map[int64]Draft),
		ttl:    ttl,
	}
}

// Get returns the user's draft if one exists and has not expired.
func (s *Store) Get(userID int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[userID]
	if !ok {
		return Draft{}, false
	}
	if time.Since(d.UpdatedAt) > s.ttl {
		delete(s.drafts, userID)
		return Draft{}, false
	}
	return d, true
}

// Put stores or replaces the user's draft and refreshes its idle timer.
func (s *Store) Put(userID int64, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.UpdatedAt = time.Now()
	s.drafts[userID] = d
}

func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, userID)
}

// Sweep drops all expired drafts and returns how many were evicted.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, d := range s.drafts {
		if time.Since(d.UpdatedAt) > s.ttl {
			delete(s.drafts, userID)
			evicted++
		}
	}
	return evicted
}

// StartJanitor sweeps expired drafts in the background.
func (s *Store) StartJanitor(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			if n := s.Sweep(); n > 0 {
				log.Debugf("Evicted %d stale conversation draft(s)", n)
			}
		}
	}()
}
