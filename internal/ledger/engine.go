package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Funding methods a caller may select explicitly. Direct user actions never
// fall back from one to the other; only the recurring-donation job walks the
// wallet-then-card order.
const (
	MethodMoneyBox = "MONEY_BOX"
	MethodCard     = "CARD"
)

// Engine owns every mutation of wallet balances. Handlers and jobs describe
// the movement they want; the engine decides nothing about funding on its own
// and executes each movement as one atomic storage unit.
type Engine struct {
	store   Store
	gateway Charger
	log     zerolog.Logger
}

func NewEngine(store Store, gateway Charger, log zerolog.Logger) *Engine {
	return &Engine{store: store, gateway: gateway, log: log.With().Str("component", "ledger").Logger()}
}

// Store exposes the engine's storage handle for callers that need read access
// (settings listing, card lookups) without going through settlement.
func (e *Engine) Store() Store { return e.store }

// ApplyEffect atomically adjusts the user's wallet and appends the justifying
// transaction. It is the only sanctioned path to mutate a balance: no observer
// can see the balance updated without the transaction present, or vice versa.
func (e *Engine) ApplyEffect(ctx context.Context, userID uint, kind string, amount decimal.Decimal, description string, donationTypeID *uint) (*models.Transaction, error) {
	var t *models.Transaction
	err := e.store.InTx(ctx, func(tx Store) error {
		var err error
		t, err = e.applyEffect(ctx, tx, userID, kind, amount, description, donationTypeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// applyEffect runs inside an already-open transaction; the webhook and verify
// paths compose it with their own dedup writes.
func (e *Engine) applyEffect(ctx context.Context, tx Store, userID uint, kind string, amount decimal.Decimal, description string, donationTypeID *uint) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	w, err := tx.WalletForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("locking wallet: %w", err)
	}
	if w.Frozen {
		return nil, ErrWalletFrozen
	}

	balance := w.Balance
	switch kind {
	case models.TransactionDeposit:
		balance = balance.Add(amount)
	case models.TransactionDonation, models.TransactionWithdrawal:
		if balance.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		balance = balance.Sub(amount)
	default:
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}

	if err := tx.SaveWalletBalance(ctx, userID, balance); err != nil {
		return nil, fmt.Errorf("updating balance: %w", err)
	}
	t := &models.Transaction{
		UserID:         userID,
		Amount:         amount,
		Kind:           kind,
		Source:         models.SourceMoneyBox,
		DonationTypeID: donationTypeID,
		Description:    description,
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("appending transaction: %w", err)
	}
	return t, nil
}

// Deposit credits the wallet. No funding check: the caller has already
// confirmed incoming funds with the gateway.
func (e *Engine) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.ApplyEffect(ctx, userID, models.TransactionDeposit, amount, description, nil)
}

// Donate debits the wallet. Direct donations are wallet-only: a thin balance
// fails with ErrInsufficientFunds rather than silently charging a card.
func (e *Engine) Donate(ctx context.Context, userID uint, amount decimal.Decimal, description string, donationTypeID *uint) (*models.Transaction, error) {
	return e.ApplyEffect(ctx, userID, models.TransactionDonation, amount, description, donationTypeID)
}

func (e *Engine) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.ApplyEffect(ctx, userID, models.TransactionWithdrawal, amount, description, nil)
}

// DonateViaCard charges the user's most recent active saved card and, only on
// gateway success, appends a CARD-sourced DONATION. The wallet is never
// touched: card funds bypass the money box entirely. descFormat must contain
// one %s verb, filled with the card's last four digits.
func (e *Engine) DonateViaCard(ctx context.Context, user *models.User, amount decimal.Decimal, refPrefix, descFormat string, donationTypeID *uint) (*models.Transaction, error) {
	return e.donateViaCard(ctx, user, amount, refPrefix, descFormat, donationTypeID, nil)
}

// donateViaCard optionally runs followup inside the same unit that records the
// transaction, so callers can attach dependent rows atomically.
func (e *Engine) donateViaCard(ctx context.Context, user *models.User, amount decimal.Decimal, refPrefix, descFormat string, donationTypeID *uint, followup func(tx Store, t *models.Transaction) error) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	card, err := e.store.LatestActiveCard(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up saved card: %w", err)
	}
	if card == nil {
		return nil, ErrNoSavedCard
	}

	ref := refPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
	res, err := e.gateway.ChargeAuthorization(ctx, user.Email, paystack.ToKobo(amount), card.AuthorizationCode, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayCharge, err)
	}
	if res.Status != "success" {
		return nil, fmt.Errorf("%w: gateway status %q", ErrGatewayCharge, res.Status)
	}

	t := &models.Transaction{
		UserID:         user.ID,
		Amount:         amount,
		Kind:           models.TransactionDonation,
		Source:         models.SourceCard,
		DonationTypeID: donationTypeID,
		Description:    fmt.Sprintf(descFormat, card.Last4),
	}
	err = e.store.InTx(ctx, func(tx Store) error {
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return err
		}
		if followup != nil {
			return followup(tx, t)
		}
		return nil
	})
	if err != nil {
		// The charge went through but the record failed; surface loudly, the
		// gateway reference is the recovery handle.
		e.log.Error().Err(err).Str("reference", ref).Uint("user_id", user.ID).
			Msg("card charged but donation record failed")
		return nil, err
	}
	e.log.Info().Uint("user_id", user.ID).Str("reference", ref).Str("last4", card.Last4).
		Str("amount", amount.String()).Msg("card donation settled")
	return t, nil
}

// FundingPolicy selects how SettleDonation funds a donation. Callers choose;
// the engine never infers a fallback from user settings on its own.
type FundingPolicy int

const (
	PolicyWalletOnly FundingPolicy = iota
	PolicyCardOnly
	PolicyWalletThenCard
)

// SettleDonation is the single funding-policy decision point. boxDesc labels a
// wallet settlement; cardDescFormat must contain one %s verb for the card's
// last four digits. Under PolicyWalletThenCard the card is tried only when the
// wallet balance is short; any other wallet error stands.
func (e *Engine) SettleDonation(ctx context.Context, user *models.User, amount decimal.Decimal, policy FundingPolicy, refPrefix, boxDesc, cardDescFormat string, donationTypeID *uint) (*models.Transaction, error) {
	switch policy {
	case PolicyWalletOnly:
		return e.Donate(ctx, user.ID, amount, boxDesc, donationTypeID)
	case PolicyCardOnly:
		return e.DonateViaCard(ctx, user, amount, refPrefix, cardDescFormat, donationTypeID)
	case PolicyWalletThenCard:
		t, err := e.Donate(ctx, user.ID, amount, boxDesc, donationTypeID)
		if err == nil || !errors.Is(err, ErrInsufficientFunds) {
			return t, err
		}
		return e.DonateViaCard(ctx, user, amount, refPrefix, cardDescFormat, donationTypeID)
	default:
		return nil, fmt.Errorf("unknown funding policy %d", policy)
	}
}

// ZakahQuickPay settles a zakah donation from an explicitly chosen source.
func (e *Engine) ZakahQuickPay(ctx context.Context, user *models.User, amount decimal.Decimal, method, note string) (*models.Transaction, error) {
	if note == "" {
		note = "Zakah payment"
	}
	switch method {
	case MethodMoneyBox:
		return e.SettleDonation(ctx, user, amount, PolicyWalletOnly, "zakah_", note+" (Money Box)", "", nil)
	case MethodCard:
		return e.SettleDonation(ctx, user, amount, PolicyCardOnly, "zakah_", "", note+" (Card %s)", nil)
	default:
		return nil, fmt.Errorf("invalid payment method %q", method)
	}
}

// DonateWelfare settles a welfare-for-families donation and records its
// purpose sub-record in the same unit as the transaction. Either both rows
// land or neither does.
func (e *Engine) DonateWelfare(ctx context.Context, user *models.User, amount decimal.Decimal, purpose, method string) (*models.Transaction, *models.WelfareFamilyDonation, error) {
	base := fmt.Sprintf("Welfare donation (%s)", purpose)
	newRecord := func(t *models.Transaction) *models.WelfareFamilyDonation {
		return &models.WelfareFamilyDonation{
			UserID:        user.ID,
			TransactionID: &t.ID,
			Purpose:       purpose,
			Amount:        amount,
		}
	}

	switch method {
	case MethodMoneyBox:
		if !amount.IsPositive() {
			return nil, nil, ErrAmountNotPositive
		}
		var (
			t *models.Transaction
			w *models.WelfareFamilyDonation
		)
		err := e.store.InTx(ctx, func(tx Store) error {
			var err error
			t, err = e.applyEffect(ctx, tx, user.ID, models.TransactionDonation, amount, base+" (Money Box)", nil)
			if err != nil {
				return err
			}
			w = newRecord(t)
			return tx.CreateWelfareRecord(ctx, w)
		})
		if err != nil {
			return nil, nil, err
		}
		return t, w, nil
	case MethodCard:
		var w *models.WelfareFamilyDonation
		t, err := e.donateViaCard(ctx, user, amount, "welfare_", base+" (Card %s)", nil, func(tx Store, t *models.Transaction) error {
			w = newRecord(t)
			return tx.CreateWelfareRecord(ctx, w)
		})
		if err != nil {
			return nil, nil, err
		}
		return t, w, nil
	default:
		return nil, nil, fmt.Errorf("invalid payment method %q", method)
	}
}

// VerifyIntegrity recomputes the signed sum of the user's wallet-funded
// transactions and compares it to the stored balance. On divergence the wallet
// is frozen so no further settlement can compound the damage; the balance is
// never adjusted automatically.
func (e *Engine) VerifyIntegrity(ctx context.Context, userID uint) error {
	var balance, sum decimal.Decimal
	err := e.store.InTx(ctx, func(tx Store) error {
		w, err := tx.WalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		balance = w.Balance
		sum, err = tx.SumWalletEffects(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}
	if balance.Equal(sum) {
		return nil
	}
	// Freeze in its own committed unit so the flag survives the error return.
	err = e.store.InTx(ctx, func(tx Store) error {
		return tx.FreezeWallet(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("freezing wallet: %w", err)
	}
	e.log.Error().Uint("user_id", userID).
		Str("balance", balance.String()).Str("ledger_sum", sum.String()).
		Msg("wallet frozen: balance diverges from transaction log")
	return fmt.Errorf("user %d: balance %s, ledger sum %s: %w", userID, balance, sum, ErrInconsistentState)
}
