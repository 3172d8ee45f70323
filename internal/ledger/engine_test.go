package ledger_test

import (
	"context"
	"errors"
	"testing"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/ledger/ledgertest"
	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newEngine(store *ledgertest.FakeStore, charger ledger.Charger) *ledger.Engine {
	return ledger.NewEngine(store, charger, zerolog.Nop())
}

func ngn(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDepositCreditsWalletAndAppendsTransaction(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})

	tr, err := eng.Deposit(context.Background(), 1, ngn("5000"), "Deposit via card (Ref: ref_1)")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if tr.Kind != models.TransactionDeposit {
		t.Errorf("kind = %q, want DEPOSIT", tr.Kind)
	}
	if got := store.Balance(1); !got.Equal(ngn("5000")) {
		t.Errorf("balance = %s, want 5000", got)
	}
	if n := len(store.Transactions(1)); n != 1 {
		t.Errorf("transactions = %d, want 1", n)
	}
}

func TestDonateDebitsWallet(t *testing.T) {
	store := ledgertest.NewFakeStore()
	store.SetBalance(1, ngn("10000"))
	eng := newEngine(store, &ledgertest.FakeCharger{})

	if _, err := eng.Donate(context.Background(), 1, ngn("3000"), "Impromptu donation", nil); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if got := store.Balance(1); !got.Equal(ngn("7000")) {
		t.Errorf("balance = %s, want 7000", got)
	}
}

func TestDonateInsufficientFundsLeavesStateUntouched(t *testing.T) {
	store := ledgertest.NewFakeStore()
	store.SetBalance(1, ngn("100"))
	eng := newEngine(store, &ledgertest.FakeCharger{})

	_, err := eng.Donate(context.Background(), 1, ngn("100.01"), "Too much", nil)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := store.Balance(1); !got.Equal(ngn("100")) {
		t.Errorf("balance = %s, want 100 unchanged", got)
	}
	if n := len(store.Transactions(1)); n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
}

func TestExactBalanceDonationSucceeds(t *testing.T) {
	store := ledgertest.NewFakeStore()
	store.SetBalance(1, ngn("250.50"))
	eng := newEngine(store, &ledgertest.FakeCharger{})

	if _, err := eng.Donate(context.Background(), 1, ngn("250.50"), "Everything", nil); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if got := store.Balance(1); !got.IsZero() {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	for _, amt := range []string{"0", "-50"} {
		if _, err := eng.Deposit(ctx, 1, ngn(amt), "bad"); !errors.Is(err, ledger.ErrAmountNotPositive) {
			t.Errorf("Deposit(%s) err = %v, want ErrAmountNotPositive", amt, err)
		}
		if _, err := eng.Withdraw(ctx, 1, ngn(amt), "bad"); !errors.Is(err, ledger.ErrAmountNotPositive) {
			t.Errorf("Withdraw(%s) err = %v, want ErrAmountNotPositive", amt, err)
		}
	}
}

func TestFrozenWalletRejectsSettlement(t *testing.T) {
	store := ledgertest.NewFakeStore()
	store.SetBalance(1, ngn("500"))
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	// Corrupt the balance out of band, then verify.
	store.SetBalance(1, ngn("9999"))
	if err := eng.VerifyIntegrity(ctx, 1); !errors.Is(err, ledger.ErrInconsistentState) {
		t.Fatalf("VerifyIntegrity err = %v, want ErrInconsistentState", err)
	}
	if !store.Frozen(1) {
		t.Fatal("wallet not frozen after divergence")
	}
	if _, err := eng.Deposit(ctx, 1, ngn("10"), "after freeze"); !errors.Is(err, ledger.ErrWalletFrozen) {
		t.Errorf("Deposit on frozen wallet err = %v, want ErrWalletFrozen", err)
	}
}

func TestVerifyIntegrityCleanWallet(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	if _, err := eng.Deposit(ctx, 1, ngn("1000"), "seed"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Donate(ctx, 1, ngn("400"), "give", nil); err != nil {
		t.Fatal(err)
	}
	if err := eng.VerifyIntegrity(ctx, 1); err != nil {
		t.Errorf("VerifyIntegrity: %v", err)
	}
	if store.Frozen(1) {
		t.Error("wallet frozen on a consistent ledger")
	}
}

// Replaying every transaction in order must land on the stored balance.
func TestLedgerConservation(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	steps := []struct {
		kind   string
		amount string
	}{
		{models.TransactionDeposit, "10000"},
		{models.TransactionDonation, "2500.25"},
		{models.TransactionDeposit, "199.99"},
		{models.TransactionWithdrawal, "3000"},
		{models.TransactionDonation, "1000"},
	}
	for _, s := range steps {
		var err error
		switch s.kind {
		case models.TransactionDeposit:
			_, err = eng.Deposit(ctx, 1, ngn(s.amount), "step")
		case models.TransactionDonation:
			_, err = eng.Donate(ctx, 1, ngn(s.amount), "step", nil)
		case models.TransactionWithdrawal:
			_, err = eng.Withdraw(ctx, 1, ngn(s.amount), "step")
		}
		if err != nil {
			t.Fatalf("%s %s: %v", s.kind, s.amount, err)
		}
	}

	replayed := decimal.Zero
	for _, tr := range store.Transactions(1) {
		replayed = replayed.Add(tr.SignedAmount())
	}
	if got := store.Balance(1); !got.Equal(replayed) {
		t.Errorf("balance = %s, replayed sum = %s", got, replayed)
	}
	if want := ngn("3699.74"); !replayed.Equal(want) {
		t.Errorf("replayed sum = %s, want %s", replayed, want)
	}
}

func TestDonateViaCardSuccess(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "aisha@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_x1", Last4: "4081", Active: true})
	store.SetBalance(user.ID, ngn("50"))

	charger := &ledgertest.FakeCharger{}
	eng := newEngine(store, charger)

	tr, err := eng.DonateViaCard(context.Background(), &user, ngn("2000"), "don_", "Donation (Card %s)", nil)
	if err != nil {
		t.Fatalf("DonateViaCard: %v", err)
	}
	if charger.Calls != 1 {
		t.Errorf("charger calls = %d, want 1", charger.Calls)
	}
	if tr.Source != models.SourceCard {
		t.Errorf("source = %q, want CARD", tr.Source)
	}
	if tr.Description != "Donation (Card 4081)" {
		t.Errorf("description = %q", tr.Description)
	}
	// Card settlement never touches the money box.
	if got := store.Balance(user.ID); !got.Equal(ngn("50")) {
		t.Errorf("balance = %s, want 50 unchanged", got)
	}
	if !tr.SignedAmount().IsZero() {
		t.Errorf("card transaction wallet effect = %s, want 0", tr.SignedAmount())
	}
}

func TestDonateViaCardNoSavedCard(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "noCard@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})

	_, err := eng.DonateViaCard(context.Background(), &user, ngn("2000"), "don_", "Donation (Card %s)", nil)
	if !errors.Is(err, ledger.ErrNoSavedCard) {
		t.Fatalf("err = %v, want ErrNoSavedCard", err)
	}
}

func TestDonateViaCardGatewayFailureLeavesNoRecord(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "bola@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_x2", Last4: "1234", Active: true})

	charger := &ledgertest.FakeCharger{
		ChargeFn: func(ctx context.Context, email string, amountKobo int64, auth, ref string) (*paystack.ChargeData, error) {
			return &paystack.ChargeData{Status: "failed", Reference: ref}, nil
		},
	}
	eng := newEngine(store, charger)

	_, err := eng.DonateViaCard(context.Background(), &user, ngn("2000"), "don_", "Donation (Card %s)", nil)
	if !errors.Is(err, ledger.ErrGatewayCharge) {
		t.Fatalf("err = %v, want ErrGatewayCharge", err)
	}
	if n := len(store.Transactions(user.ID)); n != 0 {
		t.Errorf("transactions = %d, want 0 after failed charge", n)
	}
}

func TestZakahQuickPayBothMethods(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "zakah@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_z", Last4: "9999", Active: true})
	store.SetBalance(user.ID, ngn("100000"))
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	boxTr, err := eng.ZakahQuickPay(ctx, &user, ngn("25000"), ledger.MethodMoneyBox, "")
	if err != nil {
		t.Fatalf("ZakahQuickPay money box: %v", err)
	}
	if boxTr.Source != models.SourceMoneyBox {
		t.Errorf("source = %q, want MONEY_BOX", boxTr.Source)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("75000")) {
		t.Errorf("balance = %s, want 75000", got)
	}

	cardTr, err := eng.ZakahQuickPay(ctx, &user, ngn("25000"), ledger.MethodCard, "")
	if err != nil {
		t.Fatalf("ZakahQuickPay card: %v", err)
	}
	if cardTr.Source != models.SourceCard {
		t.Errorf("source = %q, want CARD", cardTr.Source)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("75000")) {
		t.Errorf("balance = %s, want 75000 after card zakah", got)
	}

	if _, err := eng.ZakahQuickPay(ctx, &user, ngn("10"), "CASH", ""); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestSettleDonationWalletThenCard(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "halima@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_p", Last4: "4242", Active: true})
	store.SetBalance(user.ID, ngn("10000"))
	charger := &ledgertest.FakeCharger{}
	eng := newEngine(store, charger)

	// Funded wallet: settle from the box, the gateway stays untouched.
	tr, err := eng.SettleDonation(context.Background(), &user, ngn("5000"),
		ledger.PolicyWalletThenCard, "recurring_", "Box settle", "Card settle (%s)", nil)
	if err != nil {
		t.Fatalf("SettleDonation: %v", err)
	}
	if tr.Source != models.SourceMoneyBox {
		t.Errorf("source = %q, want MONEY_BOX", tr.Source)
	}
	if charger.Calls != 0 {
		t.Errorf("gateway calls = %d, want 0", charger.Calls)
	}

	// Thin wallet: fall back to the saved card, balance untouched.
	tr, err = eng.SettleDonation(context.Background(), &user, ngn("9000"),
		ledger.PolicyWalletThenCard, "recurring_", "Box settle", "Card settle (%s)", nil)
	if err != nil {
		t.Fatalf("SettleDonation fallback: %v", err)
	}
	if tr.Source != models.SourceCard {
		t.Errorf("source = %q, want CARD", tr.Source)
	}
	if charger.Calls != 1 {
		t.Errorf("gateway calls = %d, want 1", charger.Calls)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("5000")) {
		t.Errorf("balance = %s, want 5000 after card fallback", got)
	}
}

func TestSettleDonationWalletOnlyNeverCharges(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "sani@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_q", Last4: "4242", Active: true})
	store.SetBalance(user.ID, ngn("100"))
	charger := &ledgertest.FakeCharger{}
	eng := newEngine(store, charger)

	_, err := eng.SettleDonation(context.Background(), &user, ngn("5000"),
		ledger.PolicyWalletOnly, "don_", "Box settle", "Card settle (%s)", nil)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if charger.Calls != 0 {
		t.Errorf("gateway calls = %d, want 0 under wallet-only policy", charger.Calls)
	}
}

func TestDonateWelfareMoneyBoxRecordsAtomically(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "halima@example.com"})
	store.SetBalance(user.ID, ngn("8000"))
	eng := newEngine(store, &ledgertest.FakeCharger{})

	tr, w, err := eng.DonateWelfare(context.Background(), &user, ngn("3000"), "FOOD", ledger.MethodMoneyBox)
	if err != nil {
		t.Fatalf("DonateWelfare: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("5000")) {
		t.Errorf("balance = %s, want 5000", got)
	}
	if tr.Description != "Welfare donation (FOOD) (Money Box)" {
		t.Errorf("description = %q", tr.Description)
	}
	if w.Purpose != "FOOD" || w.TransactionID == nil || *w.TransactionID != tr.ID {
		t.Errorf("welfare record = %+v, want linked to transaction %d", w, tr.ID)
	}
	if n := len(store.WelfareRecords(user.ID)); n != 1 {
		t.Errorf("welfare records = %d, want 1", n)
	}
}

func TestDonateWelfareRecordFailureRollsBackDebit(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "umaru@example.com"})
	store.SetBalance(user.ID, ngn("8000"))
	store.WelfareRecordErr = errors.New("welfare insert rejected")
	eng := newEngine(store, &ledgertest.FakeCharger{})

	_, _, err := eng.DonateWelfare(context.Background(), &user, ngn("3000"), "SHELTER", ledger.MethodMoneyBox)
	if err == nil {
		t.Fatal("want error when the welfare record cannot be written")
	}
	// Neither half of the settlement may survive alone.
	if got := store.Balance(user.ID); !got.Equal(ngn("8000")) {
		t.Errorf("balance = %s, want 8000 unchanged", got)
	}
	if n := len(store.Transactions(user.ID)); n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
	if n := len(store.WelfareRecords(user.ID)); n != 0 {
		t.Errorf("welfare records = %d, want 0", n)
	}
}

func TestDonateWelfareInsufficientFundsLeavesNoRecord(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "shortfall@example.com"})
	store.SetBalance(user.ID, ngn("100"))
	eng := newEngine(store, &ledgertest.FakeCharger{})

	_, _, err := eng.DonateWelfare(context.Background(), &user, ngn("3000"), "SCHOOL", ledger.MethodMoneyBox)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if n := len(store.WelfareRecords(user.ID)); n != 0 {
		t.Errorf("welfare records = %d, want 0", n)
	}
}

func TestDonateWelfareViaCard(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "zainab@example.com"})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_w", Last4: "7777", Active: true})
	charger := &ledgertest.FakeCharger{}
	eng := newEngine(store, charger)

	tr, w, err := eng.DonateWelfare(context.Background(), &user, ngn("2000"), "CLOTHING", ledger.MethodCard)
	if err != nil {
		t.Fatalf("DonateWelfare: %v", err)
	}
	if charger.Calls != 1 {
		t.Errorf("gateway calls = %d, want 1", charger.Calls)
	}
	if tr.Source != models.SourceCard {
		t.Errorf("source = %q, want CARD", tr.Source)
	}
	if tr.Description != "Welfare donation (CLOTHING) (Card 7777)" {
		t.Errorf("description = %q", tr.Description)
	}
	if w.TransactionID == nil || *w.TransactionID != tr.ID {
		t.Errorf("welfare record not linked: %+v", w)
	}
}
