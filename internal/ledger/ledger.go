package ledger

import (
	"context"
	"errors"
	"time"

	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds in money box")
	ErrWalletFrozen      = errors.New("wallet frozen pending manual reconciliation")
	ErrNoSavedCard       = errors.New("no active saved card")
	ErrGatewayCharge     = errors.New("card charge failed")
	ErrInconsistentState = errors.New("wallet balance diverges from transaction log")
)

// Store is the durable state the settlement engine needs. All methods called
// inside an InTx callback run in one atomic unit; the wallet row handed out by
// WalletForUpdate stays exclusively locked until that unit commits or rolls
// back, which is what serializes concurrent settlements per user.
//
// Lookups that can legitimately miss (PaymentByReference, UserByEmail,
// LatestActiveCard) return (nil, nil) rather than an error.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	// WalletForUpdate returns the user's wallet, creating a zero-balance row
	// the first time a user is touched.
	WalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	SaveWalletBalance(ctx context.Context, userID uint, balance decimal.Decimal) error
	FreezeWallet(ctx context.Context, userID uint) error

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	// SumWalletEffects returns the signed sum of all MONEY_BOX transactions
	// for the user: the balance the wallet should hold.
	SumWalletEffects(ctx context.Context, userID uint) (decimal.Decimal, error)
	// HasMonthlyDonation reports whether any DONATION of at least the given
	// amount exists in the calendar month containing ref.
	HasMonthlyDonation(ctx context.Context, userID uint, atLeast decimal.Decimal, ref time.Time) (bool, error)

	LatestActiveCard(ctx context.Context, userID uint) (*models.SavedCard, error)
	// ListActiveCards returns every active saved card, newest first.
	ListActiveCards(ctx context.Context, userID uint) ([]models.SavedCard, error)
	UpsertSavedCard(ctx context.Context, card *models.SavedCard) error

	PaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	// PaymentByReferenceForUpdate holds an exclusive lock on the payment row
	// until the surrounding unit commits. Dedup checks must use this variant:
	// a plain read sees a repeatable-read snapshot, so two concurrent
	// deliveries of the same reference could both observe PENDING and settle
	// twice.
	PaymentByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	// MarkPaymentSuccess and MarkPaymentFailed enforce the payment state
	// machine: SUCCESS is terminal and never overwritten, FAILED is only
	// reached from PENDING. Out-of-order updates are silent no-ops.
	MarkPaymentSuccess(ctx context.Context, reference string, at time.Time) error
	MarkPaymentFailed(ctx context.Context, reference string) error

	CreateWelfareRecord(ctx context.Context, w *models.WelfareFamilyDonation) error

	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListRecurringSettings(ctx context.Context) ([]models.DonationSetting, error)
}

// Charger is the slice of the payment gateway the engine consumes: charge a
// saved authorization, bounded timeout, no automatic retry.
type Charger interface {
	ChargeAuthorization(ctx context.Context, email string, amountKobo int64, authorizationCode, reference string) (*paystack.ChargeData, error)
}
