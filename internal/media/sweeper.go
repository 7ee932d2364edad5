package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the expiry sweep once a minute.
const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically drops expired objects and reports occupancy.
type Sweeper struct {
	store  *Store
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules Store.Sweep on the given cron pattern. Patterns accept
// an optional seconds field and descriptors such as "@every 30s".
func NewSweeper(log *slog.Logger, store *Store, schedule string) (*Sweeper, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if strings.TrimSpace(schedule) == "" {
		schedule = DefaultSweepSchedule
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Sweeper{
		store:  store,
		cron:   cron.New(cron.WithParser(parser)),
		logger: log.With(slog.String("service", "media_sweeper")),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule: %w", err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	removed := s.store.Sweep(time.Now())
	stats := s.store.Stats()
	level := slog.LevelDebug
	if removed > 0 {
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, "sweep finished",
		slog.Int("removed", removed),
		slog.Int("entries", stats.Entries),
		slog.Int64("total_bytes", stats.TotalBytes),
	)
}
