// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the gocron scheduler and its jobs.
type Scheduler struct {
	s   gocron.Scheduler
	log zerolog.Logger
}

// New registers the token purge job to run every interval (default 1h).
func New(tokens TokenPurger, every time.Duration, log zerolog.Logger) (*Scheduler, error) {
	if every <= 0 {
		every = time.Hour
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	sc := &Scheduler{s: s, log: log.With().Str("component", "scheduler").Logger()}

	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(sc.purgeTokens, tokens),
		gocron.WithName("purge-refresh-tokens"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register purge job: %w", err)
	}
	return sc, nil
}

func (sc *Scheduler) purgeTokens(tokens TokenPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := tokens.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		sc.log.Error().Err(err).Msg("purge refresh tokens failed")
		return
	}
	if n > 0 {
		sc.log.Info().Int64("deleted", n).Msg("purged refresh tokens")
	}
}

// Run starts the jobs and blocks until ctx is done, then shuts the
// scheduler down.
func (sc *Scheduler) Run(ctx context.Context) error {
	sc.s.Start()
	<-ctx.Done()
	return sc.s.Shutdown()
}
