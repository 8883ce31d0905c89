package service

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the TMDB import on a cron expression. A tick that fires
// while the previous run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	importer ImportService
	count    int
	running  atomic.Bool
}

func NewScheduler(importer ImportService, count int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		importer: importer,
		count:    count,
	}
}

// Schedule registers the import job. An empty spec leaves the job on-demand only.
func (s *Scheduler) Schedule(spec string) error {
	if spec == "" {
		log.Info().Msg("TMDB import registered as on-demand job (no schedule)")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	log.Info().Str("schedule", spec).Msg("TMDB import scheduled")
	return nil
}

// RunOnce performs one import unless another one is in flight. It reports
// whether a run actually happened.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("TMDB import still running, skipping this tick")
		return false
	}
	defer s.running.Store(false)

	log.Info().Msg("starting scheduled TMDB import")
	result, err := s.importer.Run(ctx, s.count)
	if err != nil {
		log.Error().Err(err).Msg("scheduled TMDB import failed")
		return true
	}
	log.Info().
		Int("movies_imported", result.MoviesImported).
		Int("authors_imported", result.AuthorsImported).
		Msg("scheduled TMDB import completed")
	return true
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("entries", len(s.cron.Entries())).Msg("import scheduler started")
}

// Stop halts the cron loop and waits for a running import to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("import scheduler stopped")
}
