package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"sweetlive/backend/internal/archive"
	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/insights"
	"sweetlive/backend/internal/ledger"
	"sweetlive/backend/internal/metrics"
	"sweetlive/backend/internal/store"
)

var (
	ErrUnauthenticated      = errors.New("workspace session required")
	ErrConfirmationRequired = errors.New("confirmation required")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	Archiver archive.Archiver
	Advisor  *insights.Advisor
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
	NewID    func(prefix string) string
}

// session holds the in-memory ledger of one workspace. loaded stays false
// until the gateway has answered, so a failed load can never be followed by
// a save of an empty ledger.
type session struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	loaded bool
}

type Service struct {
	gateway  store.Gateway
	archiver archive.Archiver
	advisor  *insights.Advisor
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    func() time.Time
	newID    func(prefix string) string

	mu       sync.Mutex
	sessions map[string]*session
}

func New(gateway store.Gateway, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Archiver == nil {
		opts.Archiver = archive.NoopArchiver{}
	}
	if opts.Advisor == nil {
		opts.Advisor = insights.NewAdvisor(nil, nil, insights.Options{Logger: opts.Logger})
	}
	return &Service{
		gateway:  gateway,
		archiver: opts.Archiver,
		advisor:  opts.Advisor,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		clock:    opts.Clock,
		newID:    opts.NewID,
		sessions: make(map[string]*session),
	}
}

// Open loads the workspace snapshot if it is not in memory yet.
func (s *Service) Open(ctx context.Context, workspaceID string) error {
	sess, _, err := s.lockSession(ctx, workspaceID)
	if err != nil {
		return err
	}
	sess.mu.Unlock()
	return nil
}

// lockSession returns the workspace session locked and loaded. The caller
// must unlock it.
func (s *Service) lockSession(ctx context.Context, workspaceID string) (*session, string, error) {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ledger.ErrValidation, err)
	}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	if sess.loaded {
		return sess, key, nil
	}
	snapshot, err := s.gateway.Load(ctx, key)
	if err != nil {
		sess.mu.Unlock()
		s.logger.Error("failed to load snapshot", zap.String("workspace", key), zap.Error(err))
		return nil, "", fmt.Errorf("load workspace %s: %w", key, err)
	}
	sess.ledger = ledger.New(snapshot, s.ledgerOptions()...)
	sess.loaded = true
	s.logger.Info("workspace loaded", zap.String("workspace", key), zap.Int("products", len(snapshot.Products)), zap.Int("sales", len(snapshot.Sales)))
	return sess, key, nil
}

func (s *Service) ledgerOptions() []ledger.Option {
	var opts []ledger.Option
	if s.clock != nil {
		opts = append(opts, ledger.WithClock(s.clock))
	}
	if s.newID != nil {
		opts = append(opts, ledger.WithIDGenerator(s.newID))
	}
	return opts
}

// reportOverdraw records a stock withdrawal that was clamped at zero.
func (s *Service) reportOverdraw(workspace string, o domain.Overdraw) {
	s.logger.Warn("stock withdrawal clamped at zero",
		zap.String("workspace", workspace),
		zap.String("product_id", o.ProductID),
		zap.String("product", o.ProductName),
		zap.String("stock", o.Stock.String()),
		zap.String("withdrawn", o.Withdrawn.String()),
		zap.String("source", o.Source),
	)
	if s.metrics != nil {
		s.metrics.Overdraws.WithLabelValues(o.Source).Inc()
	}
}

func workspaceFromContext(ctx context.Context) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Workspace == "" {
		return "", ErrUnauthenticated
	}
	return actor.Workspace, nil
}

// read runs fn against the current ledger under the session lock.
func (s *Service) read(ctx context.Context, fn func(l *ledger.Ledger)) error {
	workspace, err := workspaceFromContext(ctx)
	if err != nil {
		return err
	}
	sess, _, err := s.lockSession(ctx, workspace)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	fn(sess.ledger)
	return nil
}

// mutate applies fn to a clone of the ledger, persists the clone and only
// then makes it current. A rejected or unsaved operation leaves the
// session untouched and reports no overdraws.
func (s *Service) mutate(ctx context.Context, operation string, fn func(l *ledger.Ledger) error) error {
	workspace, err := workspaceFromContext(ctx)
	if err != nil {
		return err
	}
	sess, key, err := s.lockSession(ctx, workspace)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	var overdraws []domain.Overdraw
	next := sess.ledger.Clone(ledger.WithOverdrawHook(func(o domain.Overdraw) {
		overdraws = append(overdraws, o)
	}))
	if err := fn(next); err != nil {
		s.observe(operation, "rejected")
		return err
	}
	if err := s.gateway.Save(ctx, key, next.Snapshot()); err != nil {
		s.observe(operation, "save_failed")
		if s.metrics != nil {
			s.metrics.SnapshotSaves.WithLabelValues("error").Inc()
		}
		s.logger.Error("failed to save snapshot", zap.String("workspace", key), zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("save workspace %s: %w", key, err)
	}
	if s.metrics != nil {
		s.metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	}
	sess.ledger = next
	for _, o := range overdraws {
		s.reportOverdraw(key, o)
	}
	s.observe(operation, "ok")
	return nil
}

func (s *Service) observe(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.Operations.WithLabelValues(operation, outcome).Inc()
	}
}

func requireConfirmation(c domain.Confirmation) error {
	if !c.Confirmed {
		return ErrConfirmationRequired
	}
	return nil
}

// Snapshots copies the snapshot of every loaded workspace.
func (s *Service) Snapshots() map[string]domain.Snapshot {
	s.mu.Lock()
	keys := make([]string, 0, len(s.sessions))
	sessions := make([]*session, 0, len(s.sessions))
	for key, sess := range s.sessions {
		keys = append(keys, key)
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	out := make(map[string]domain.Snapshot, len(keys))
	for i, sess := range sessions {
		sess.mu.Lock()
		if sess.loaded {
			out[keys[i]] = sess.ledger.Snapshot()
		}
		sess.mu.Unlock()
	}
	return out
}

// Workspaces lists the loaded workspace ids in order.
func (s *Service) Workspaces() []string {
	snapshots := s.Snapshots()
	out := make([]string, 0, len(snapshots))
	for key := range snapshots {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
