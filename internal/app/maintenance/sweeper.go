// Package maintenance removes tasks whose board is gone and puts tasks no
// column lists back on their board.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/app/board"
	"taskboard/internal/app/task"
	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	orphanBatch = 500
	boardBatch  = 100
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Reconciler puts detached tasks back into a column of their board.
// board.Service satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, boardID string) (int, error)
}

// Result counts the tasks one sweep removed and reattached.
type Result struct {
	Orphaned   int64 `json:"orphaned"`
	Reattached int64 `json:"reattached"`
}

type Sweeper struct {
	tasks    task.Repository
	boards   board.Repository
	recon    Reconciler
	grace    time.Duration
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewSweeper(tasks task.Repository, boards board.Repository, recon Reconciler, schedule string, grace time.Duration, logger *zap.Logger) *Sweeper {
	sugar := logger.Sugar()
	cl := cronLogger{sugar}
	return &Sweeper{
		tasks:    tasks,
		boards:   boards,
		recon:    recon,
		grace:    grace,
		schedule: schedule,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		now:    time.Now,
		logger: sugar,
	}
}

// Start schedules the sweep. An empty schedule disables it.
func (s *Sweeper) Start() error {
	if s.schedule == "" {
		s.logger.Info("Orphan sweep disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Errorw("Orphan sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Infow("Orphan sweep scheduled", "schedule", s.schedule, "grace", s.grace)
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep deletes tasks older than the grace period whose board is gone. Tasks
// whose board still exists are never deleted: when no column lists them they
// are put back through the board's own mutation path.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	cutoff := s.now().Add(-s.grace)

	for {
		orphans, err := s.tasks.ListOrphans(ctx, cutoff, orphanBatch)
		if err != nil {
			return res, fmt.Errorf("maintenance: list orphans: %w", err)
		}
		if len(orphans) == 0 {
			break
		}
		n, err := s.tasks.DeleteByIDs(ctx, taskIDs(orphans))
		if err != nil {
			return res, fmt.Errorf("maintenance: delete orphans: %w", err)
		}
		res.Orphaned += n
		if len(orphans) < orphanBatch || n == 0 {
			break
		}
	}

	var detached []string
	err := s.boards.EachBatch(ctx, boardBatch, func(boards []*models.Board) error {
		for _, b := range boards {
			ok, err := s.hasDetached(ctx, b)
			if err != nil {
				return err
			}
			if ok {
				detached = append(detached, b.ID)
			}
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("maintenance: sweep boards: %w", err)
	}

	for _, id := range detached {
		n, err := s.recon.Reconcile(ctx, id)
		if errors.Is(err, apierrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("maintenance: reconcile board %s: %w", id, err)
		}
		res.Reattached += int64(n)
	}

	if res.Orphaned > 0 || res.Reattached > 0 {
		s.logger.Infow("Orphan sweep finished", "orphaned", res.Orphaned, "reattached", res.Reattached)
	}
	return res, nil
}

func (s *Sweeper) hasDetached(ctx context.Context, b *models.Board) (bool, error) {
	tasks, err := s.tasks.ListByBoard(ctx, b.ID)
	if err != nil {
		return false, err
	}
	referenced := make(map[string]struct{})
	for _, id := range b.TaskIDs() {
		referenced[id] = struct{}{}
	}
	for _, t := range tasks {
		if _, ok := referenced[t.ID]; !ok {
			return true, nil
		}
	}
	return false, nil
}

func taskIDs(tasks []*models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
