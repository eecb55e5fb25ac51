package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/google/uuid"
)

// Runner executes a selection. *weft.Engine and *runtime.Engine satisfy it.
type Runner interface {
	Run(ctx context.Context, g *domain.Graph, sel domain.Selection, opts ...runtime.RunOption) (*domain.RunReport, error)
}

// subscriberBuffer is the per-subscriber backlog before updates are dropped.
const subscriberBuffer = 64

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// activeRun is a run that has not completed yet.
type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[chan domain.NodeTestResult]struct{}

	deleted bool // set by Delete; later updates are not persisted
}

// Manager orchestrates background runs and their persisted reports.
type Manager struct {
	store  ports.RunStore
	runner Runner
	logger *slog.Logger

	mu     sync.Mutex            // guards locks and active
	locks  map[string]*lockEntry // per-run locks
	active map[string]*activeRun

	wg sync.WaitGroup
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager that runs with runner and persists to store.
func NewManager(store ports.RunStore, runner Runner, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		runner: runner,
		logger: logging.NewNop(),
		locks:  make(map[string]*lockEntry),
		active: make(map[string]*activeRun),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for run id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()
	return fn(ctx)
}

// Start launches a run and returns its initial report once the run has
// actually started. Errors that prevent the run from starting (missing
// executor, invalid input, rejected cycle) are returned here and nothing is
// persisted. The run outlives ctx; use Cancel to stop it.
func (m *Manager) Start(ctx context.Context, g *domain.Graph, sel domain.Selection) (*domain.RunReport, error) {
	id := uuid.NewString()
	initial := pendingReport(id, sel)
	if err := m.Save(ctx, initial); err != nil {
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ar := &activeRun{cancel: cancel, done: make(chan struct{}), subs: make(map[chan domain.NodeTestResult]struct{})}
	m.mu.Lock()
	m.active[id] = ar
	m.mu.Unlock()

	updates := make(chan domain.NodeTestResult, subscriberBuffer)
	started := make(chan struct{})
	drained := make(chan struct{})
	finished := make(chan struct{})
	startErr := make(chan error, 1)
	persistCtx := context.WithoutCancel(ctx)

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		defer close(drained)
		m.consume(persistCtx, id, initial.Clone(), updates, started)
	}()
	go func() {
		defer m.wg.Done()
		defer cancel()
		report, err := m.runner.Run(runCtx, g, sel, runtime.WithRunID(id), runtime.WithUpdates(updates))
		close(updates)
		<-drained
		if err != nil {
			startErr <- err
		}
		m.finish(persistCtx, id, report, err)
		close(finished)
	}()

	// The first update means the run passed validation. A run that ends
	// without any update either had nothing to do or failed to start.
	select {
	case <-started:
	case <-finished:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case err := <-startErr:
		return nil, err
	default:
	}
	return m.Get(ctx, id)
}

// consume applies updates to the snapshot, persists it and fans it out.
// started is closed on the first update.
func (m *Manager) consume(ctx context.Context, id string, snapshot *domain.RunReport, updates <-chan domain.NodeTestResult, started chan struct{}) {
	once := sync.OnceFunc(func() { close(started) })

	for res := range updates {
		snapshot.Phase = domain.PhaseRunning
		snapshot.Results[res.NodeID] = res
		if err := m.persist(ctx, snapshot); err != nil {
			m.logger.Warn("failed to persist run update", "run_id", id, "node_id", res.NodeID, "error", err)
		}
		m.broadcast(id, res)
		once()
	}
}

// finish persists the final report, closes subscribers and forgets the run.
func (m *Manager) finish(ctx context.Context, id string, report *domain.RunReport, runErr error) {
	switch {
	case runErr != nil:
		if err := m.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrRunNotFound) {
			m.logger.Warn("failed to drop unstarted run", "run_id", id, "error", err)
		}
		m.logger.Info("run rejected", "run_id", id, "error", runErr)
	default:
		if err := m.persist(ctx, report); err != nil {
			m.logger.Error("failed to persist final report", "run_id", id, "error", err)
		}
		succeeded, failed := report.Counts()
		m.logger.Info("run stored", "run_id", id, "success", succeeded, "error", failed, "canceled", report.Canceled)
	}

	m.mu.Lock()
	ar, ok := m.active[id]
	delete(m.active, id)
	if ok {
		for ch := range ar.subs {
			delete(ar.subs, ch)
			close(ch)
		}
	}
	m.mu.Unlock()
	if ok {
		close(ar.done)
	}
}

func (m *Manager) broadcast(id string, res domain.NodeTestResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ar, ok := m.active[id]
	if !ok {
		return
	}
	for ch := range ar.subs {
		select {
		case ch <- res:
		default:
			m.logger.Warn("subscriber buffer full, dropping update", "run_id", id, "node_id", res.NodeID)
		}
	}
}

// Subscribe streams the result changes of an active run. The channel is
// closed when the run completes; for a completed run it is closed already.
// The returned func unsubscribes.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan domain.NodeTestResult, func(), error) {
	m.mu.Lock()
	ar, ok := m.active[id]
	if ok {
		ch := make(chan domain.NodeTestResult, subscriberBuffer)
		ar.subs[ch] = struct{}{}
		m.mu.Unlock()
		return ch, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, still := ar.subs[ch]; still {
				delete(ar.subs, ch)
				close(ch)
			}
		}, nil
	}
	m.mu.Unlock()

	if _, err := m.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.NodeTestResult)
	close(ch)
	return ch, func() {}, nil
}

// Cancel stops an active run. Nodes not yet dispatched fail as canceled.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	ar, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		ar.cancel()
		m.logger.Info("run cancel requested", "run_id", id)
		return nil
	}
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: run %s is complete", domain.ErrInvalidTransition, id)
}

// Wait blocks until run id completes and returns its final report.
func (m *Manager) Wait(ctx context.Context, id string) (*domain.RunReport, error) {
	m.mu.Lock()
	ar, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		select {
		case <-ar.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Get(ctx, id)
}

// Active lists the ids of runs still in progress.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Get loads a report from the store.
func (m *Manager) Get(ctx context.Context, id string) (*domain.RunReport, error) {
	var report *domain.RunReport
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		report, err = m.store.Load(ctx, id)
		return err
	})
	return report, err
}

// Save persists a report.
func (m *Manager) Save(ctx context.Context, report *domain.RunReport) error {
	return m.WithLock(ctx, report.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, report)
	})
}

// persist saves a report of an active run unless the run was deleted.
// The check runs under the per-run lock, so it cannot interleave with Delete.
func (m *Manager) persist(ctx context.Context, report *domain.RunReport) error {
	return m.WithLock(ctx, report.ID, func(ctx context.Context) error {
		m.mu.Lock()
		ar, ok := m.active[report.ID]
		deleted := ok && ar.deleted
		m.mu.Unlock()
		if deleted {
			return nil
		}
		return m.store.Save(ctx, report)
	})
}

// Delete cancels the run if it is active and removes its report. Updates
// the run produces afterwards are dropped.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if ar, ok := m.active[id]; ok {
		ar.deleted = true
		ar.cancel()
	}
	m.mu.Unlock()
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}

// Shutdown cancels every active run and waits for their reports to be
// persisted, or for ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, ar := range m.active {
		ar.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func pendingReport(id string, sel domain.Selection) *domain.RunReport {
	report := &domain.RunReport{
		ID:        id,
		Phase:     domain.PhaseConfiguring,
		Results:   make(map[string]domain.NodeTestResult, len(sel.NodeIDs)),
		StartedAt: time.Now().UTC(),
	}
	for _, nodeID := range sel.NodeIDs {
		report.Results[nodeID] = domain.NewPendingResult(nodeID)
	}
	return report
}
