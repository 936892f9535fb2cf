package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

func newTestPaymentService(repo *memoryRepository) PaymentService {
	return NewPaymentService(repo, nil, testLogger(), validator.New(), nil)
}

func TestSubmitPayment(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	direction := seedDirection(repo, "d1", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	payment, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{
		DirectionID: "d1",
		Amount:      50000,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if payment.Status != models.PaymentPending {
		t.Errorf("status = %s, want pending", payment.Status)
	}
	if payment.DirectionName != direction.Name {
		t.Errorf("DirectionName = %q, want %q", payment.DirectionName, direction.Name)
	}
	if payment.UserName == "" || payment.UserEmail == "" {
		t.Error("submitter details not denormalized onto the payment")
	}
}

func TestSubmitPayment_Rejections(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	blocked := seedStudent(repo, "u2")
	blocked.IsBlocked = true
	seedDirection(repo, "d-free", true)
	seedDirection(repo, "d-paid", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "u2", &SubmitPaymentRequest{DirectionID: "d-paid", Amount: 1000}); !errors.Is(err, ErrUserBlocked) {
		t.Errorf("blocked user: %v, want ErrUserBlocked", err)
	}
	if _, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "missing", Amount: 1000}); !errors.Is(err, ErrDirectionNotFound) {
		t.Errorf("unknown direction: %v, want ErrDirectionNotFound", err)
	}

	_, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "d-free", Amount: 1000})
	var bErr *BusinessRuleError
	if !errors.As(err, &bErr) {
		t.Errorf("free direction: %v, want BusinessRuleError", err)
	}

	_, err = svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "d-paid"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("zero amount: %v, want ValidationError", err)
	}
}

func TestConfirmPayment_GrantsPurchase(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d1", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	payment, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "d1", Amount: 50000})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	confirmed, err := svc.Confirm(ctx, payment.ID, "admin-1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != models.PaymentConfirmed {
		t.Errorf("status = %s, want confirmed", confirmed.Status)
	}
	if confirmed.DecidedBy == nil || *confirmed.DecidedBy != "admin-1" {
		t.Error("DecidedBy not recorded")
	}
	if !user.HasDirection("d1") {
		t.Error("direction not granted on confirmation")
	}
	if want := 1 + models.AttemptsPerPurchase; user.MaxTestAttempts != want {
		t.Errorf("MaxTestAttempts = %d, want %d", user.MaxTestAttempts, want)
	}

	// A decided payment cannot be decided again.
	if _, err := svc.Confirm(ctx, payment.ID, "admin-1"); !errors.Is(err, ErrPaymentDecided) {
		t.Errorf("second Confirm: %v, want ErrPaymentDecided", err)
	}
	if _, err := svc.Reject(ctx, payment.ID, "admin-1"); !errors.Is(err, ErrPaymentDecided) {
		t.Errorf("Reject after Confirm: %v, want ErrPaymentDecided", err)
	}
}

func TestConfirmPayment_UnlimitedAttemptsUntouched(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	user.MaxTestAttempts = models.UnlimitedAttempts
	seedDirection(repo, "d1", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	payment, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "d1", Amount: 50000})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Confirm(ctx, payment.ID, "admin-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if user.MaxTestAttempts != models.UnlimitedAttempts {
		t.Errorf("MaxTestAttempts = %d, want the unlimited sentinel", user.MaxTestAttempts)
	}
}

func TestRejectPayment(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d1", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	payment, err := svc.Submit(ctx, "u1", &SubmitPaymentRequest{DirectionID: "d1", Amount: 50000})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rejected, err := svc.Reject(ctx, payment.ID, "admin-1")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.PaymentRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if user.HasDirection("d1") {
		t.Error("rejected payment must not grant the direction")
	}
	if user.MaxTestAttempts != 1 {
		t.Errorf("MaxTestAttempts = %d, want 1", user.MaxTestAttempts)
	}

	if _, err := svc.Reject(ctx, "missing", "admin-1"); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("unknown payment: %v, want ErrPaymentNotFound", err)
	}
}

func TestListPayments_StudentSeesOnlyOwn(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedStudent(repo, "u2")
	seedAdmin(repo, "a1")
	seedDirection(repo, "d1", false)
	svc := newTestPaymentService(repo)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		if _, err := svc.Submit(ctx, userID, &SubmitPaymentRequest{DirectionID: "d1", Amount: 50000}); err != nil {
			t.Fatalf("Submit for %s: %v", userID, err)
		}
	}

	own, total, err := svc.List(ctx, repositories.PaymentFilters{}, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].UserID != "u1" {
		t.Errorf("student list: %d payments, total %d", len(own), total)
	}

	all, total, err := svc.List(ctx, repositories.PaymentFilters{}, "a1")
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("admin list: %d payments, total %d", len(all), total)
	}
}
