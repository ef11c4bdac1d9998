package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sweetlive/backend/internal/archive"
	"sweetlive/backend/internal/domain"
)

const DefaultArchiveSpec = "30 23 * * *"

// SnapshotSource lists the snapshots of every workspace loaded in memory.
type SnapshotSource interface {
	Snapshots() map[string]domain.Snapshot
}

// Scheduler runs the nightly snapshot archive.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	source   SnapshotSource
	archiver archive.Archiver
	now      func() time.Time
	logger   *zap.Logger
}

func New(spec string, source SnapshotSource, archiver archive.Archiver, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultArchiveSpec
	}
	if archiver == nil {
		archiver = archive.NoopArchiver{}
	}
	return &Scheduler{
		cron:     cron.New(),
		spec:     spec,
		source:   source,
		archiver: archiver,
		now:      time.Now,
		logger:   logger,
	}
}

// Start registers the archive job and starts the cron loop. An invalid
// schedule is returned to the caller.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("archive_spec", s.spec))
	if _, err := s.cron.AddFunc(s.spec, s.archiveAll); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) archiveAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce archives every loaded workspace and returns how many succeeded.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	snapshots := s.source.Snapshots()
	workspaces := make([]string, 0, len(snapshots))
	for ws := range snapshots {
		workspaces = append(workspaces, ws)
	}
	sort.Strings(workspaces)

	at := s.now()
	archived := 0
	for _, ws := range workspaces {
		if err := s.archiver.Archive(ctx, ws, snapshots[ws], at); err != nil {
			s.logger.Error("failed to archive snapshot", zap.String("workspace", ws), zap.Error(err))
			continue
		}
		archived++
	}
	s.logger.Info("nightly archive finished", zap.Int("archived", archived), zap.Int("workspaces", len(workspaces)))
	return archived
}
