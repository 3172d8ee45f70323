// Package ledgertest provides an in-memory ledger.Store for exercising the
// settlement engine without a database. Transactions are emulated with a
// snapshot: mutations inside InTx are kept on commit and discarded when the
// callback errors, which is enough to test the engine's atomicity contract.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"

	"github.com/shopspring/decimal"
)

type state struct {
	wallets      map[uint]*models.Wallet
	transactions []models.Transaction
	payments     []models.Payment
	cards        []models.SavedCard
	users        []models.User
	settings     []models.DonationSetting
	welfare      []models.WelfareFamilyDonation
	nextID       uint
}

func (s *state) clone() *state {
	c := &state{
		wallets:      make(map[uint]*models.Wallet, len(s.wallets)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		payments:     append([]models.Payment(nil), s.payments...),
		cards:        append([]models.SavedCard(nil), s.cards...),
		users:        append([]models.User(nil), s.users...),
		settings:     append([]models.DonationSetting(nil), s.settings...),
		welfare:      append([]models.WelfareFamilyDonation(nil), s.welfare...),
		nextID:       s.nextID,
	}
	for id, w := range s.wallets {
		cp := *w
		c.wallets[id] = &cp
	}
	return c
}

// FakeStore implements ledger.Store in memory. Safe for concurrent use; each
// top-level InTx runs with the store's lock held, so callbacks are serialized
// the way row locks serialize them in production.
type FakeStore struct {
	mu   sync.Mutex
	s    *state
	inTx bool

	// WelfareRecordErr makes CreateWelfareRecord fail, for rollback tests.
	WelfareRecordErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{s: &state{wallets: make(map[uint]*models.Wallet), nextID: 1}}
}

func (f *FakeStore) id() uint {
	id := f.s.nextID
	f.s.nextID++
	return id
}

func (f *FakeStore) InTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	if f.inTx {
		return fn(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := f.s.clone()
	f.inTx = true
	err := fn(f)
	f.inTx = false
	if err != nil {
		f.s = snapshot
	}
	return err
}

func (f *FakeStore) WalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	if w, ok := f.s.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	w := &models.Wallet{ID: f.id(), UserID: userID, Balance: decimal.Zero, Currency: "NGN"}
	f.s.wallets[userID] = w
	cp := *w
	return &cp, nil
}

func (f *FakeStore) SaveWalletBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	w, ok := f.s.wallets[userID]
	if !ok {
		w = &models.Wallet{ID: f.id(), UserID: userID, Currency: "NGN"}
		f.s.wallets[userID] = w
	}
	w.Balance = balance
	return nil
}

func (f *FakeStore) FreezeWallet(ctx context.Context, userID uint) error {
	if w, ok := f.s.wallets[userID]; ok {
		w.Frozen = true
	}
	return nil
}

func (f *FakeStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	t.ID = f.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	f.s.transactions = append(f.s.transactions, *t)
	return nil
}

func (f *FakeStore) SumWalletEffects(ctx context.Context, userID uint) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i := range f.s.transactions {
		t := &f.s.transactions[i]
		if t.UserID == userID {
			sum = sum.Add(t.SignedAmount())
		}
	}
	return sum, nil
}

func (f *FakeStore) HasMonthlyDonation(ctx context.Context, userID uint, atLeast decimal.Decimal, ref time.Time) (bool, error) {
	for i := range f.s.transactions {
		t := &f.s.transactions[i]
		if t.UserID != userID || t.Kind != models.TransactionDonation {
			continue
		}
		if t.CreatedAt.Year() == ref.Year() && t.CreatedAt.Month() == ref.Month() &&
			t.Amount.GreaterThanOrEqual(atLeast) {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeStore) LatestActiveCard(ctx context.Context, userID uint) (*models.SavedCard, error) {
	var latest *models.SavedCard
	for i := range f.s.cards {
		c := &f.s.cards[i]
		if c.UserID == userID && c.Active {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) || (c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *FakeStore) ListActiveCards(ctx context.Context, userID uint) ([]models.SavedCard, error) {
	var cards []models.SavedCard
	for i := range f.s.cards {
		if f.s.cards[i].UserID == userID && f.s.cards[i].Active {
			cards = append(cards, f.s.cards[i])
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.After(cards[j].CreatedAt)
		}
		return cards[i].ID > cards[j].ID
	})
	return cards, nil
}

func (f *FakeStore) UpsertSavedCard(ctx context.Context, card *models.SavedCard) error {
	for i := range f.s.cards {
		c := &f.s.cards[i]
		if c.UserID == card.UserID && c.AuthorizationCode == card.AuthorizationCode {
			return nil
		}
	}
	card.ID = f.id()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	f.s.cards = append(f.s.cards, *card)
	return nil
}

func (f *FakeStore) PaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	for i := range f.s.payments {
		if f.s.payments[i].Reference == reference {
			cp := f.s.payments[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	p.ID = f.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.s.payments = append(f.s.payments, *p)
	return nil
}

func (f *FakeStore) PaymentByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error) {
	// Top-level InTx already holds the store lock, which serializes callbacks
	// the way the production row lock does.
	return f.PaymentByReference(ctx, reference)
}

func (f *FakeStore) MarkPaymentSuccess(ctx context.Context, reference string, at time.Time) error {
	for i := range f.s.payments {
		if f.s.payments[i].Reference == reference && f.s.payments[i].Status != models.PaymentSuccess {
			f.s.payments[i].Status = models.PaymentSuccess
			f.s.payments[i].VerifiedAt = &at
			return nil
		}
	}
	return nil
}

func (f *FakeStore) MarkPaymentFailed(ctx context.Context, reference string) error {
	for i := range f.s.payments {
		if f.s.payments[i].Reference == reference && f.s.payments[i].Status == models.PaymentPending {
			f.s.payments[i].Status = models.PaymentFailed
			return nil
		}
	}
	return nil
}

func (f *FakeStore) CreateWelfareRecord(ctx context.Context, w *models.WelfareFamilyDonation) error {
	if f.WelfareRecordErr != nil {
		return f.WelfareRecordErr
	}
	w.ID = f.id()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	f.s.welfare = append(f.s.welfare, *w)
	return nil
}

func (f *FakeStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	for i := range f.s.users {
		if f.s.users[i].Email == email {
			cp := f.s.users[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeStore) ListRecurringSettings(ctx context.Context) ([]models.DonationSetting, error) {
	var out []models.DonationSetting
	for i := range f.s.settings {
		if f.s.settings[i].MonthlyAmount.IsPositive() {
			out = append(out, f.s.settings[i])
		}
	}
	return out, nil
}

// Seed helpers below are for tests only and bypass the tx snapshot.

func (f *FakeStore) AddUser(u models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.id()
	}
	f.s.users = append(f.s.users, u)
	return u
}

func (f *FakeStore) AddCard(c models.SavedCard) models.SavedCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		c.ID = f.id()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.s.cards = append(f.s.cards, c)
	return c
}

func (f *FakeStore) AddSetting(s models.DonationSetting) models.DonationSetting {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == 0 {
		s.ID = f.id()
	}
	f.s.settings = append(f.s.settings, s)
	return s
}

func (f *FakeStore) AddTransaction(t models.Transaction) models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		t.ID = f.id()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	f.s.transactions = append(f.s.transactions, t)
	return t
}

func (f *FakeStore) SetBalance(userID uint, balance decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.s.wallets[userID]
	if !ok {
		w = &models.Wallet{ID: f.id(), UserID: userID, Currency: "NGN"}
		f.s.wallets[userID] = w
	}
	w.Balance = balance
}

func (f *FakeStore) Balance(userID uint) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.s.wallets[userID]; ok {
		return w.Balance
	}
	return decimal.Zero
}

func (f *FakeStore) Frozen(userID uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.s.wallets[userID]; ok {
		return w.Frozen
	}
	return false
}

func (f *FakeStore) Transactions(userID uint) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, t := range f.s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (f *FakeStore) Payments() []models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment(nil), f.s.payments...)
}

func (f *FakeStore) Cards(userID uint) []models.SavedCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SavedCard
	for _, c := range f.s.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeStore) WelfareRecords(userID uint) []models.WelfareFamilyDonation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WelfareFamilyDonation
	for _, w := range f.s.welfare {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out
}

// FakeCharger implements ledger.Charger with a pluggable function, in the
// style of handler-level mocks elsewhere in the tests.
type FakeCharger struct {
	ChargeFn func(ctx context.Context, email string, amountKobo int64, authorizationCode, reference string) (*paystack.ChargeData, error)
	Calls    int
}

func (c *FakeCharger) ChargeAuthorization(ctx context.Context, email string, amountKobo int64, authorizationCode, reference string) (*paystack.ChargeData, error) {
	c.Calls++
	if c.ChargeFn == nil {
		return &paystack.ChargeData{Status: "success", Reference: reference, Amount: amountKobo}, nil
	}
	return c.ChargeFn(ctx, email, amountKobo, authorizationCode, reference)
}
