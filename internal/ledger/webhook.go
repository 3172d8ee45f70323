package ledger

import (
	"context"
	"fmt"
	"time"

	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"
)

// ChargeSuccessEvent is the settled subset of a gateway charge.success
// notification. The transport layer verifies the signature and unwraps the
// envelope before anything here runs.
type ChargeSuccessEvent struct {
	Reference     string
	AmountKobo    int64
	Email         string
	Channel       string
	Authorization paystack.Authorization
}

// ProcessChargeSuccess settles a gateway notification exactly once. The dedup
// check, payment state flip, wallet credit and card capture share one storage
// transaction, so a redelivered event either sees SUCCESS and no-ops or the
// whole settlement is retried from scratch.
func (e *Engine) ProcessChargeSuccess(ctx context.Context, ev ChargeSuccessEvent) error {
	amount := paystack.FromKobo(ev.AmountKobo)
	return e.store.InTx(ctx, func(tx Store) error {
		user, err := tx.UserByEmail(ctx, ev.Email)
		if err != nil {
			return fmt.Errorf("resolving user: %w", err)
		}
		if user == nil {
			// Not one of ours; acknowledge so the gateway stops retrying.
			e.log.Warn().Str("reference", ev.Reference).Str("email", ev.Email).
				Msg("charge.success for unknown email, ignoring")
			return nil
		}

		// Locked read: a concurrent delivery of the same reference parks on
		// the row lock and observes the committed SUCCESS, not a stale
		// PENDING snapshot.
		p, err := tx.PaymentByReferenceForUpdate(ctx, ev.Reference)
		if err != nil {
			return fmt.Errorf("looking up payment: %w", err)
		}
		if p != nil && p.Status == models.PaymentSuccess {
			e.log.Info().Str("reference", ev.Reference).Msg("duplicate charge.success, already settled")
			return nil
		}
		if p == nil {
			p = &models.Payment{
				UserID:    user.ID,
				Amount:    amount,
				Reference: ev.Reference,
				Status:    models.PaymentPending,
				Purpose:   models.PaymentPurposeDeposit,
				Channel:   ev.Channel,
			}
			if err := tx.CreatePayment(ctx, p); err != nil {
				return fmt.Errorf("recording payment: %w", err)
			}
		}

		if err := tx.MarkPaymentSuccess(ctx, ev.Reference, time.Now()); err != nil {
			return fmt.Errorf("marking payment success: %w", err)
		}

		desc := fmt.Sprintf("Deposit via %s (Ref: %s)", ev.Channel, ev.Reference)
		if _, err := e.applyEffect(ctx, tx, user.ID, models.TransactionDeposit, amount, desc, nil); err != nil {
			return err
		}

		if ev.Authorization.Reusable && ev.Authorization.AuthorizationCode != "" {
			card := &models.SavedCard{
				UserID:            user.ID,
				AuthorizationCode: ev.Authorization.AuthorizationCode,
				CardType:          ev.Authorization.CardType,
				Last4:             ev.Authorization.Last4,
				ExpMonth:          ev.Authorization.ExpMonth,
				ExpYear:           ev.Authorization.ExpYear,
				Email:             user.Email,
				Active:            true,
			}
			if err := tx.UpsertSavedCard(ctx, card); err != nil {
				return fmt.Errorf("saving card authorization: %w", err)
			}
		}

		e.log.Info().Uint("user_id", user.ID).Str("reference", ev.Reference).
			Str("amount", amount.String()).Str("channel", ev.Channel).Msg("deposit settled")
		return nil
	})
}

// ConfirmDeposit settles a user-initiated deposit after the client calls the
// verify endpoint. It shares the webhook's idempotency: whichever of the two
// paths runs first wins and the other becomes a no-op.
func (e *Engine) ConfirmDeposit(ctx context.Context, reference string, verified *paystack.ChargeData) error {
	if verified.Status != "success" {
		return e.store.InTx(ctx, func(tx Store) error {
			p, err := tx.PaymentByReferenceForUpdate(ctx, reference)
			if err != nil {
				return fmt.Errorf("looking up payment: %w", err)
			}
			// Only a PENDING payment can fail. If the webhook already
			// settled this reference the credit stands.
			if p == nil || p.Status != models.PaymentPending {
				return nil
			}
			return tx.MarkPaymentFailed(ctx, reference)
		})
	}
	return e.store.InTx(ctx, func(tx Store) error {
		p, err := tx.PaymentByReferenceForUpdate(ctx, reference)
		if err != nil {
			return fmt.Errorf("looking up payment: %w", err)
		}
		if p == nil {
			return fmt.Errorf("payment %s: %w", reference, ErrInconsistentState)
		}
		if p.Status == models.PaymentSuccess {
			return nil
		}

		if err := tx.MarkPaymentSuccess(ctx, reference, time.Now()); err != nil {
			return fmt.Errorf("marking payment success: %w", err)
		}
		desc := fmt.Sprintf("Deposit via %s (Ref: %s)", verified.Channel, reference)
		if _, err := e.applyEffect(ctx, tx, p.UserID, models.TransactionDeposit, p.Amount, desc, nil); err != nil {
			return err
		}

		auth := verified.Authorization
		if auth.Reusable && auth.AuthorizationCode != "" {
			card := &models.SavedCard{
				UserID:            p.UserID,
				AuthorizationCode: auth.AuthorizationCode,
				CardType:          auth.CardType,
				Last4:             auth.Last4,
				ExpMonth:          auth.ExpMonth,
				ExpYear:           auth.ExpYear,
				Email:             auth.Email,
				Active:            true,
			}
			if err := tx.UpsertSavedCard(ctx, card); err != nil {
				return fmt.Errorf("saving card authorization: %w", err)
			}
		}
		return nil
	})
}
