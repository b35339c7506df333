package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotraq/be-waste-dashboard/internal/metrics"
	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
)

// ScreenLoader obtains the normalized collection for a screen. The retrieval
// coordinator is the real implementation.
type ScreenLoader interface {
	LoadNormalized(ctx context.Context, screenID string, role record.RoleContext) retrieval.LoadResult
}

// Snapshot is the last applied load for a screen.
type Snapshot struct {
	Result   retrieval.LoadResult
	LoadedAt time.Time
}

// DashboardService owns screen load lifecycles. Each screen gets a
// monotonically increasing load token; a load result is applied only if no
// newer load for the same screen applied first, so a slow in-flight load can
// never overwrite fresher state. Starting a new load cancels the previous
// load's context, which is the screen-unmount cancellation model.
type DashboardService struct {
	loader ScreenLoader
	log    zerolog.Logger

	mu      sync.Mutex
	screens map[string]*screenState
}

type screenState struct {
	seq      uint64
	applied  uint64
	cancel   context.CancelFunc
	snapshot Snapshot
	hasSnap  bool
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(loader ScreenLoader, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		loader:  loader,
		log:     log.With().Str("component", "dashboard").Logger(),
		screens: make(map[string]*screenState),
	}
}

// LoadScreen runs one load for the screen and returns its result. The result
// is also recorded as the screen's snapshot unless a newer load already
// applied, in which case this result is returned to its caller but discarded
// from shared state.
func (s *DashboardService) LoadScreen(ctx context.Context, screenID string, role record.RoleContext) retrieval.LoadResult {
	loadCtx, token := s.begin(ctx, screenID)

	result := s.loader.LoadNormalized(loadCtx, screenID, role)

	if !s.apply(screenID, token, result) {
		metrics.StaleLoadsDiscarded.WithLabelValues(screenID).Inc()
		s.log.Debug().
			Str("screen", screenID).
			Uint64("token", token).
			Msg("Discarded stale load result")
	}
	return result
}

// Snapshot returns the screen's last applied load, if any.
func (s *DashboardService) Snapshot(screenID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.screens[screenID]
	if !ok || !st.hasSnap {
		return Snapshot{}, false
	}
	return st.snapshot, true
}

// CloseScreen cancels the screen's in-flight load, if any. Its result will
// still pass through apply and be discarded there if stale.
func (s *DashboardService) CloseScreen(screenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.screens[screenID]; ok && st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
}

// begin issues the next load token for the screen and cancels the previous
// in-flight load.
func (s *DashboardService) begin(ctx context.Context, screenID string) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.screens[screenID]
	if !ok {
		st = &screenState{}
		s.screens[screenID] = st
	}
	if st.cancel != nil {
		st.cancel()
	}

	loadCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.seq++
	return loadCtx, st.seq
}

// apply records the result as the screen snapshot if the token is still the
// newest to complete. Returns false when the result was stale.
func (s *DashboardService) apply(screenID string, token uint64, result retrieval.LoadResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.screens[screenID]
	if token <= st.applied {
		return false
	}
	st.applied = token
	st.snapshot = Snapshot{Result: result, LoadedAt: time.Now()}
	st.hasSnap = true
	return true
}
