package job

import (
	"context"
	"time"

	"ishrakaat/internal/service"

	"github.com/rs/zerolog"
)

// NisabRefreshJob keeps the zakah thresholds current against live metal
// prices. It refreshes once at startup so a fresh deploy is never empty, then
// on the configured interval.
type NisabRefreshJob struct {
	zakah    *service.ZakahService
	log      zerolog.Logger
	stopCh   chan struct{}
	interval time.Duration
}

func NewNisabRefreshJob(zakah *service.ZakahService, log zerolog.Logger, interval time.Duration) *NisabRefreshJob {
	return &NisabRefreshJob{
		zakah:    zakah,
		log:      log.With().Str("job", "nisab_refresh").Logger(),
		stopCh:   make(chan struct{}),
		interval: interval,
	}
}

func (j *NisabRefreshJob) Start(ctx context.Context) {
	j.log.Info().Dur("interval", j.interval).Msg("nisab refresh job started")

	if err := j.zakah.RefreshNisab(ctx); err != nil {
		j.log.Error().Err(err).Msg("initial nisab refresh failed")
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("nisab refresh job stopped")
			return
		case <-j.stopCh:
			j.log.Info().Msg("nisab refresh job stopped")
			return
		case <-ticker.C:
			if err := j.zakah.RefreshNisab(ctx); err != nil {
				j.log.Error().Err(err).Msg("nisab refresh failed")
			}
		}
	}
}

func (j *NisabRefreshJob) Stop() {
	close(j.stopCh)
}
