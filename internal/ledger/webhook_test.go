package ledger_test

import (
	"context"
	"testing"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/ledger/ledgertest"
	"ishrakaat/internal/models"
	"ishrakaat/pkg/paystack"
)

func chargeEvent(ref, email string, kobo int64) ledger.ChargeSuccessEvent {
	return ledger.ChargeSuccessEvent{
		Reference:  ref,
		AmountKobo: kobo,
		Email:      email,
		Channel:    "card",
	}
}

func TestProcessChargeSuccessCreditsOnce(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "donor@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	ev := chargeEvent("ref_1", user.Email, 500000)
	if err := eng.ProcessChargeSuccess(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("5000")) {
		t.Errorf("balance = %s, want 5000", got)
	}

	// Redelivery of the same event must be a no-op.
	if err := eng.ProcessChargeSuccess(ctx, ev); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("5000")) {
		t.Errorf("balance after redelivery = %s, want 5000", got)
	}
	if n := len(store.Transactions(user.ID)); n != 1 {
		t.Errorf("transactions = %d, want exactly 1", n)
	}

	p, _ := store.PaymentByReference(ctx, "ref_1")
	if p == nil || p.Status != models.PaymentSuccess {
		t.Fatalf("payment = %+v, want SUCCESS", p)
	}
	if p.VerifiedAt == nil {
		t.Error("VerifiedAt not set")
	}
}

func TestProcessChargeSuccessUnknownEmailAcked(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})

	err := eng.ProcessChargeSuccess(context.Background(), chargeEvent("ref_x", "stranger@example.com", 100000))
	if err != nil {
		t.Fatalf("unknown email must be acknowledged, got %v", err)
	}
	if n := len(store.Payments()); n != 0 {
		t.Errorf("payments = %d, want 0", n)
	}
}

func TestProcessChargeSuccessResumesPendingPayment(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "resume@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	// A verify attempt earlier recorded the payment but the process died
	// before the wallet credit. The webhook must finish the job.
	seeded := &models.Payment{
		UserID:    user.ID,
		Amount:    ngn("2500"),
		Reference: "ref_pending",
		Status:    models.PaymentPending,
		Purpose:   models.PaymentPurposeDeposit,
	}
	if err := store.CreatePayment(ctx, seeded); err != nil {
		t.Fatal(err)
	}

	if err := eng.ProcessChargeSuccess(ctx, chargeEvent("ref_pending", user.Email, 250000)); err != nil {
		t.Fatalf("ProcessChargeSuccess: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("2500")) {
		t.Errorf("balance = %s, want 2500", got)
	}
	p, _ := store.PaymentByReference(ctx, "ref_pending")
	if p.Status != models.PaymentSuccess {
		t.Errorf("status = %q, want SUCCESS", p.Status)
	}
}

func TestProcessChargeSuccessSavesReusableCard(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "card@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	ev := chargeEvent("ref_card", user.Email, 100000)
	ev.Authorization = paystack.Authorization{
		AuthorizationCode: "AUTH_abc",
		Reusable:          true,
		CardType:          "visa",
		Last4:             "4081",
		ExpMonth:          "12",
		ExpYear:           "2028",
	}
	if err := eng.ProcessChargeSuccess(ctx, ev); err != nil {
		t.Fatal(err)
	}
	cards := store.Cards(user.ID)
	if len(cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(cards))
	}
	if cards[0].AuthorizationCode != "AUTH_abc" || cards[0].Last4 != "4081" {
		t.Errorf("card = %+v", cards[0])
	}

	// Redelivery must not duplicate the card either.
	if err := eng.ProcessChargeSuccess(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if n := len(store.Cards(user.ID)); n != 1 {
		t.Errorf("cards after redelivery = %d, want 1", n)
	}
}

func TestProcessChargeSuccessNonReusableCardNotSaved(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "once@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})

	ev := chargeEvent("ref_once", user.Email, 100000)
	ev.Authorization = paystack.Authorization{AuthorizationCode: "AUTH_zzz", Reusable: false, Last4: "1111"}
	if err := eng.ProcessChargeSuccess(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if n := len(store.Cards(user.ID)); n != 0 {
		t.Errorf("cards = %d, want 0 for non-reusable authorization", n)
	}
}

func TestConfirmDepositSettlesPending(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "verify@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	if err := store.CreatePayment(ctx, &models.Payment{
		UserID:    user.ID,
		Amount:    ngn("1500"),
		Reference: "ref_v",
		Status:    models.PaymentPending,
		Purpose:   models.PaymentPurposeDeposit,
	}); err != nil {
		t.Fatal(err)
	}

	verified := &paystack.ChargeData{Status: "success", Reference: "ref_v", Amount: 150000, Channel: "bank"}
	if err := eng.ConfirmDeposit(ctx, "ref_v", verified); err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("1500")) {
		t.Errorf("balance = %s, want 1500", got)
	}

	// Verify then webhook: the second path sees SUCCESS and does nothing.
	if err := eng.ProcessChargeSuccess(ctx, chargeEvent("ref_v", user.Email, 150000)); err != nil {
		t.Fatal(err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("1500")) {
		t.Errorf("balance after webhook = %s, want 1500", got)
	}
}

func TestConfirmDepositAfterWebhookCreditsOnce(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "both@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	// Webhook first, verify second: the same reference must settle once.
	if err := eng.ProcessChargeSuccess(ctx, chargeEvent("ref_both", user.Email, 300000)); err != nil {
		t.Fatal(err)
	}
	verified := &paystack.ChargeData{Status: "success", Reference: "ref_both", Amount: 300000, Channel: "card"}
	if err := eng.ConfirmDeposit(ctx, "ref_both", verified); err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("3000")) {
		t.Errorf("balance = %s, want 3000", got)
	}
	if n := len(store.Transactions(user.ID)); n != 1 {
		t.Errorf("transactions = %d, want exactly 1", n)
	}
}

func TestConfirmDepositFailedNeverOverwritesSuccess(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "late@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	if err := eng.ProcessChargeSuccess(ctx, chargeEvent("ref_late", user.Email, 500000)); err != nil {
		t.Fatal(err)
	}

	// A late verify call reporting "failed" must not demote a settled payment.
	verified := &paystack.ChargeData{Status: "failed", Reference: "ref_late"}
	if err := eng.ConfirmDeposit(ctx, "ref_late", verified); err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	p, _ := store.PaymentByReference(ctx, "ref_late")
	if p.Status != models.PaymentSuccess {
		t.Errorf("status = %q, want SUCCESS to stay terminal", p.Status)
	}
	if got := store.Balance(user.ID); !got.Equal(ngn("5000")) {
		t.Errorf("balance = %s, want 5000", got)
	}
	if n := len(store.Transactions(user.ID)); n != 1 {
		t.Errorf("transactions = %d, want 1", n)
	}
}

func TestConfirmDepositFailedUnknownReferenceNoop(t *testing.T) {
	store := ledgertest.NewFakeStore()
	eng := newEngine(store, &ledgertest.FakeCharger{})

	verified := &paystack.ChargeData{Status: "failed", Reference: "ref_ghost"}
	if err := eng.ConfirmDeposit(context.Background(), "ref_ghost", verified); err != nil {
		t.Fatalf("unknown reference must be a no-op, got %v", err)
	}
}

func TestConfirmDepositFailedCharge(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "fail@example.com"})
	eng := newEngine(store, &ledgertest.FakeCharger{})
	ctx := context.Background()

	if err := store.CreatePayment(ctx, &models.Payment{
		UserID:    user.ID,
		Amount:    ngn("800"),
		Reference: "ref_f",
		Status:    models.PaymentPending,
	}); err != nil {
		t.Fatal(err)
	}

	verified := &paystack.ChargeData{Status: "failed", Reference: "ref_f"}
	if err := eng.ConfirmDeposit(ctx, "ref_f", verified); err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	p, _ := store.PaymentByReference(ctx, "ref_f")
	if p.Status != models.PaymentFailed {
		t.Errorf("status = %q, want FAILED", p.Status)
	}
	if got := store.Balance(user.ID); !got.IsZero() {
		t.Errorf("balance = %s, want 0", got)
	}
}
