package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 40, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeSource struct {
	mu          sync.Mutex
	me          api.User
	meErr       error
	diaryCalls  int
	requestsErr error
}

func (f *fakeSource) Me(context.Context) (api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.me, f.meErr
}

func (f *fakeSource) PartnerRequests(context.Context) ([]api.PartnerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestsErr != nil {
		return nil, f.requestsErr
	}
	return []api.PartnerRequest{{ID: 4, RequesterID: 2, RecipientID: f.me.ID, Status: "pending"}}, nil
}

func (f *fakeSource) PartnerDiaries(context.Context) ([]api.Diary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diaryCalls++
	return []api.Diary{{ID: 9, AuthorID: 2}}, nil
}

type authFlag bool

func (a authFlag) IsAuthenticated() bool { return bool(a) }

func TestRefresh_PopulatesStore(t *testing.T) {
	partner := int64(2)
	src := &fakeSource{me: api.User{ID: 1, Email: "a@x.com", PartnerID: &partner}}
	var store state.Store

	refresh(context.Background(), &store, src, authFlag(true), nil)

	snap := store.Snapshot()
	if !snap.HasMe || snap.Me.ID != 1 {
		t.Fatalf("Me = %#v, want id=1", snap.Me)
	}
	if len(snap.IncomingRequests()) != 1 {
		t.Fatalf("IncomingRequests = %d, want 1", len(snap.IncomingRequests()))
	}
	if len(snap.PartnerDiaries) != 1 || src.diaryCalls != 1 {
		t.Fatalf("PartnerDiaries = %d (calls %d), want 1/1", len(snap.PartnerDiaries), src.diaryCalls)
	}
}

func TestRefresh_SkipsPartnerDiariesWhenUnpaired(t *testing.T) {
	src := &fakeSource{me: api.User{ID: 1, Email: "a@x.com"}}
	var store state.Store

	refresh(context.Background(), &store, src, authFlag(true), nil)

	if src.diaryCalls != 0 {
		t.Fatalf("PartnerDiaries called %d times, want 0", src.diaryCalls)
	}
	if store.Snapshot().LastError != nil {
		t.Fatalf("LastError = %v, want nil", store.Snapshot().LastError)
	}
}

func TestRefresh_RecordsErrorsAndResetsWhenLoggedOut(t *testing.T) {
	src := &fakeSource{me: api.User{ID: 1, Email: "a@x.com"}}
	var store state.Store
	refresh(context.Background(), &store, src, authFlag(true), nil)

	src.requestsErr = errors.New("boom")
	refresh(context.Background(), &store, src, authFlag(true), nil)
	snap := store.Snapshot()
	if snap.LastError == nil || snap.ConsecutiveFailures != 1 || !snap.HasMe {
		t.Fatalf("snapshot = %#v, want previous data plus one failure", snap)
	}

	refresh(context.Background(), &store, src, authFlag(false), nil)
	if store.Snapshot().HasMe {
		t.Fatalf("store should be reset when logged out")
	}
}

func TestStartPoller_RefreshesImmediatelyAndOnDemand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{me: api.User{ID: 1, Email: "a@x.com"}}
	var store state.Store
	p := StartPoller(ctx, &store, src, authFlag(true), time.Hour, nil)

	waitFor(t, func() bool { return store.Snapshot().HasMe })

	src.mu.Lock()
	src.me = api.User{ID: 1, Email: "a@x.com", Name: "Renamed"}
	src.mu.Unlock()
	p.Refresh()

	waitFor(t, func() bool { return store.Snapshot().Me.Name == "Renamed" })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
