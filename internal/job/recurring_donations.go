package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/lock"
	"ishrakaat/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RecurringDonationJob walks every user with a monthly donation amount and
// settles the current month if it has not been settled yet. Funding order is
// fixed: money box first when auto-deduct is on, then the saved card when
// auto-charge is on. Each user is independent; one failure never stops the
// batch.
type RecurringDonationJob struct {
	engine   *ledger.Engine
	redis    *redis.Client
	log      zerolog.Logger
	stopCh   chan struct{}
	interval time.Duration
	lockTTL  time.Duration

	now func() time.Time
}

func NewRecurringDonationJob(engine *ledger.Engine, rdb *redis.Client, log zerolog.Logger, interval, lockTTL time.Duration) *RecurringDonationJob {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &RecurringDonationJob{
		engine:   engine,
		redis:    rdb,
		log:      log.With().Str("job", "recurring_donations").Logger(),
		stopCh:   make(chan struct{}),
		interval: interval,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

func (j *RecurringDonationJob) Start(ctx context.Context) {
	j.log.Info().Dur("interval", j.interval).Msg("recurring donation job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("recurring donation job stopped")
			return
		case <-j.stopCh:
			j.log.Info().Msg("recurring donation job stopped")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil && !errors.Is(err, lock.ErrNotAcquired) {
				j.log.Error().Err(err).Msg("recurring donation run failed")
			}
		}
	}
}

func (j *RecurringDonationJob) Stop() {
	close(j.stopCh)
}

// RunOnce performs a single batch. With redis configured, only one instance
// runs the batch per lock window; a skipped instance returns ErrNotAcquired.
func (j *RecurringDonationJob) RunOnce(ctx context.Context) error {
	if j.redis != nil {
		l := lock.New(j.redis, "jobs:recurring_donations", j.lockTTL)
		if err := l.TryAcquire(ctx); err != nil {
			return err
		}
		defer func() {
			if err := l.Release(ctx); err != nil {
				j.log.Warn().Err(err).Msg("releasing job lock")
			}
		}()
	}

	settings, err := j.engine.Store().ListRecurringSettings(ctx)
	if err != nil {
		return fmt.Errorf("listing recurring settings: %w", err)
	}

	now := j.now()
	var settled, skipped, failed int
	for _, s := range settings {
		switch err := j.settleUser(ctx, s, now); {
		case err == nil:
			settled++
		case errors.Is(err, errAlreadySettled), errors.Is(err, errNoFundingPath):
			skipped++
		default:
			failed++
			j.log.Error().Err(err).Uint("user_id", s.UserID).
				Str("amount", s.MonthlyAmount.String()).Msg("recurring donation failed")
		}
	}

	j.log.Info().Int("settled", settled).Int("skipped", skipped).Int("failed", failed).
		Int("total", len(settings)).Msg("recurring donation run complete")
	return nil
}

var (
	errAlreadySettled = errors.New("month already settled")
	errNoFundingPath  = errors.New("no funding path enabled or usable")
)

func (j *RecurringDonationJob) settleUser(ctx context.Context, s models.DonationSetting, now time.Time) error {
	done, err := j.engine.Store().HasMonthlyDonation(ctx, s.UserID, s.MonthlyAmount, now)
	if err != nil {
		return fmt.Errorf("checking month: %w", err)
	}
	if done {
		return errAlreadySettled
	}

	var policy ledger.FundingPolicy
	switch {
	case s.AutoDeductFromBox && s.AutoChargeCard:
		policy = ledger.PolicyWalletThenCard
	case s.AutoDeductFromBox:
		policy = ledger.PolicyWalletOnly
	case s.AutoChargeCard:
		policy = ledger.PolicyCardOnly
	default:
		return errNoFundingPath
	}

	monthLabel := now.Format("January 2006")
	boxDesc := "Monthly Donation (Auto-deducted from Money Box) - " + monthLabel
	cardDesc := "Monthly Donation (Auto-charged Card %s) - " + monthLabel

	_, err = j.engine.SettleDonation(ctx, &s.User, s.MonthlyAmount, policy, "recurring_", boxDesc, cardDesc, nil)
	if errors.Is(err, ledger.ErrNoSavedCard) {
		return errNoFundingPath
	}
	return err
}

// SetClock overrides the job's notion of now. Tests only.
func (j *RecurringDonationJob) SetClock(now func() time.Time) { j.now = now }
