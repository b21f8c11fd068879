package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionManager owns the per-address cycle lifecycle. At most one cycle is
// logically in flight per address: starting a new one cancels the previous
// cycle, and a superseded cycle never publishes. Published snapshots live in
// an in-memory TTL cache only.
type SessionManager struct {
	valuation *ValuationService
	snapshots *cache.Cache
	group     singleflight.Group
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]*cycleHandle
	states   map[string]statusEntry
	nextGen  uint64
}

type cycleHandle struct {
	cancel context.CancelFunc
	gen    uint64
}

type statusEntry struct {
	state  entity.CycleState
	errMsg string
}

// NewSessionManager creates a SessionManager publishing snapshots with the
// given TTL.
func NewSessionManager(valuation *ValuationService, snapshotTTL time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		valuation: valuation,
		snapshots: cache.New(snapshotTTL, 10*time.Minute),
		logger:    logger.Named("SessionManager"),
		inflight:  make(map[string]*cycleHandle),
		states:    make(map[string]statusEntry),
	}
}

var _ port.PortfolioService = (*SessionManager)(nil)

// GetPortfolio returns the cached snapshot for the address, or runs a cycle
// when none is published. Concurrent callers for the same address share one
// cycle instead of stacking provider calls.
func (m *SessionManager) GetPortfolio(ctx context.Context, address string) port.PortfolioStatus {
	key := sessionKey(address)
	if snap, found := m.snapshots.Get(key); found {
		return port.PortfolioStatus{
			State:    entity.CycleSucceeded,
			Snapshot: snap.(*entity.PortfolioSnapshot),
		}
	}

	status, _, _ := m.group.Do(key, func() (interface{}, error) {
		return m.runCycle(key, address), nil
	})
	return status.(port.PortfolioStatus)
}

// Refresh starts a fresh cycle for the address, cancelling any cycle in
// flight. The stale cycle's results are discarded, never published.
func (m *SessionManager) Refresh(ctx context.Context, address string) port.PortfolioStatus {
	key := sessionKey(address)
	m.group.Forget(key)
	return m.runCycle(key, address)
}

// Status reports the current cycle state without triggering a fetch.
func (m *SessionManager) Status(address string) port.PortfolioStatus {
	key := sessionKey(address)

	m.mu.Lock()
	entry, known := m.states[key]
	m.mu.Unlock()

	status := port.PortfolioStatus{State: entity.CycleIdle}
	if known {
		status.State = entry.state
		status.Error = entry.errMsg
	}
	if snap, found := m.snapshots.Get(key); found {
		status.Snapshot = snap.(*entity.PortfolioSnapshot)
	}
	return status
}

// Close cancels every in-flight cycle. Used on shutdown.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, h := range m.inflight {
		h.cancel()
		delete(m.inflight, key)
	}
}

// runCycle supersedes any cycle in flight for the key and runs a new one to
// completion. Publication is guarded by a generation check so a cycle that
// was cancelled or superseded mid-run can never overwrite newer state.
func (m *SessionManager) runCycle(key, address string) port.PortfolioStatus {
	// Cycles run on their own context: an HTTP caller going away must not
	// kill a cycle another caller is waiting on. Supersession and shutdown
	// are the only cancellation paths.
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if prev, ok := m.inflight[key]; ok {
		prev.cancel()
	}
	m.nextGen++
	gen := m.nextGen
	m.inflight[key] = &cycleHandle{cancel: cancel, gen: gen}
	m.states[key] = statusEntry{state: entity.CycleLoading}
	m.mu.Unlock()

	snapshot, err := m.valuation.RunCycle(ctx, address)

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.inflight[key]
	superseded := !ok || current.gen != gen
	if !superseded {
		delete(m.inflight, key)
		cancel()
	}

	if err != nil {
		if superseded || errors.Is(err, context.Canceled) {
			// Not an error: discarded silently, no visible state change
			// beyond what the superseding cycle sets.
			m.logger.Debug("Cycle cancelled, discarding results", zap.String("address", address))
			metrics.CyclesTotal.WithLabelValues("cancelled").Inc()
			if !superseded {
				m.states[key] = statusEntry{state: entity.CycleCancelled}
			}
			return port.PortfolioStatus{State: entity.CycleCancelled}
		}

		m.logger.Error("Cycle failed", zap.String("address", address), zap.Error(err))
		metrics.CyclesTotal.WithLabelValues("failed").Inc()
		m.snapshots.Delete(key) // stale rows must not outlive a failed cycle
		m.states[key] = statusEntry{state: entity.CycleFailed, errMsg: err.Error()}
		return port.PortfolioStatus{State: entity.CycleFailed, Error: err.Error()}
	}

	if superseded {
		m.logger.Debug("Cycle superseded after completion, discarding results", zap.String("address", address))
		metrics.CyclesTotal.WithLabelValues("cancelled").Inc()
		return port.PortfolioStatus{State: entity.CycleCancelled}
	}

	m.snapshots.SetDefault(key, snapshot)
	m.states[key] = statusEntry{state: entity.CycleSucceeded}
	metrics.CyclesTotal.WithLabelValues("succeeded").Inc()
	return port.PortfolioStatus{State: entity.CycleSucceeded, Snapshot: snapshot}
}

func sessionKey(address string) string {
	return strings.ToLower(address)
}
