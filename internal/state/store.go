package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/lovary/lovary/internal/api"
)

// Snapshot represents the latest account data available to the UI.
type Snapshot struct {
	Me                  api.User
	HasMe               bool
	PartnerRequests     []api.PartnerRequest
	PartnerDiaries      []api.Diary
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the backend has been unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// IncomingRequests returns the pending requests addressed to the current user.
func (s Snapshot) IncomingRequests() []api.PartnerRequest {
	if !s.HasMe {
		return nil
	}
	var out []api.PartnerRequest
	for _, r := range s.PartnerRequests {
		if r.Incoming(s.Me.ID) && r.Status == "pending" {
			out = append(out, r)
		}
	}
	return out
}

// UnreadByMe counts partner entries that have no read receipt yet.
func (s Snapshot) UnreadByMe() int {
	n := 0
	for _, d := range s.PartnerDiaries {
		if !d.IsReadByPartner {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(me *api.User, requests []api.PartnerRequest, diaries []api.Diary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if me != nil {
		s.snapshot.Me = *me
		s.snapshot.HasMe = true
	} else {
		s.snapshot.Me = api.User{}
		s.snapshot.HasMe = false
	}
	s.snapshot.PartnerRequests = cloneSlice(requests)
	s.snapshot.PartnerDiaries = cloneSlice(diaries)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Reset drops all account data, for example after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.PartnerRequests = cloneSlice(s.snapshot.PartnerRequests)
	snap.PartnerDiaries = cloneSlice(s.snapshot.PartnerDiaries)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
