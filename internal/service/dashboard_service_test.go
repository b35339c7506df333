package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
)

// fakeLoader lets tests script each load.
type fakeLoader struct {
	fn func(ctx context.Context, screenID string, role record.RoleContext) retrieval.LoadResult
}

func (f *fakeLoader) LoadNormalized(ctx context.Context, screenID string, role record.RoleContext) retrieval.LoadResult {
	return f.fn(ctx, screenID, role)
}

func rowsNamed(name string) []record.Row {
	return []record.Row{{"id": name}}
}

func TestLoadScreenRecordsSnapshot(t *testing.T) {
	loader := &fakeLoader{fn: func(context.Context, string, record.RoleContext) retrieval.LoadResult {
		return retrieval.LoadResult{Rows: rowsNamed("fresh"), Tier: 1}
	}}
	s := NewDashboardService(loader, zerolog.Nop())

	result := s.LoadScreen(context.Background(), "incidents", record.RoleContext{})

	require.NoError(t, result.Err)
	snap, ok := s.Snapshot("incidents")
	require.True(t, ok)
	assert.Equal(t, "fresh", snap.Result.Rows[0]["id"])
}

func TestStaleLoadNeverOverwritesNewerState(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	loader := &fakeLoader{fn: func(context.Context, string, record.RoleContext) retrieval.LoadResult {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()
		if call == 1 {
			close(firstStarted)
			<-release // first load is slow
			return retrieval.LoadResult{Rows: rowsNamed("stale"), Tier: 3}
		}
		return retrieval.LoadResult{Rows: rowsNamed("fresh"), Tier: 1}
	}}
	s := NewDashboardService(loader, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.LoadScreen(context.Background(), "waste_items", record.RoleContext{})
	}()
	<-firstStarted

	// Second load starts and completes while the first is still in flight.
	s.LoadScreen(context.Background(), "waste_items", record.RoleContext{})
	close(release)
	wg.Wait()

	snap, ok := s.Snapshot("waste_items")
	require.True(t, ok)
	assert.Equal(t, "fresh", snap.Result.Rows[0]["id"],
		"the discarded in-flight load must not overwrite the newer completed load")
}

func TestNewLoadCancelsPrevious(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var firstCtx context.Context
	calls := 0
	var mu sync.Mutex

	loader := &fakeLoader{fn: func(ctx context.Context, _ string, _ record.RoleContext) retrieval.LoadResult {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()
		if call == 1 {
			firstCtx = ctx
			close(firstStarted)
			<-release
		}
		return retrieval.LoadResult{Rows: []record.Row{}, Tier: 1}
	}}
	s := NewDashboardService(loader, zerolog.Nop())

	go s.LoadScreen(context.Background(), "deliveries", record.RoleContext{})
	<-firstStarted

	s.LoadScreen(context.Background(), "deliveries", record.RoleContext{})
	close(release)

	select {
	case <-firstCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("starting a new load must cancel the previous load's context")
	}
}

func TestCloseScreenCancelsInFlightLoad(t *testing.T) {
	started := make(chan struct{})
	loader := &fakeLoader{fn: func(ctx context.Context, _ string, _ record.RoleContext) retrieval.LoadResult {
		close(started)
		<-ctx.Done()
		return retrieval.LoadResult{Rows: []record.Row{}, Err: ctx.Err()}
	}}
	s := NewDashboardService(loader, zerolog.Nop())

	done := make(chan retrieval.LoadResult, 1)
	go func() {
		done <- s.LoadScreen(context.Background(), "trainings", record.RoleContext{})
	}()
	<-started

	s.CloseScreen("trainings")

	select {
	case result := <-done:
		assert.Error(t, result.Err)
	case <-time.After(time.Second):
		t.Fatal("load did not observe cancellation")
	}
}

func TestSnapshotMissingScreen(t *testing.T) {
	s := NewDashboardService(&fakeLoader{}, zerolog.Nop())
	_, ok := s.Snapshot("never_loaded")
	assert.False(t, ok)
}
