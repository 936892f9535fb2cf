package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

func newTestDirectionService(repo *memoryRepository) DirectionService {
	return NewDirectionService(repo, nil, testLogger(), validator.New())
}

func TestCreateDirection(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestDirectionService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateDirectionRequest{
		Name:  "Huquqshunoslik",
		Price: 50000,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.IsActive {
		t.Error("new directions default to active")
	}
	if created.Price != 50000 {
		t.Errorf("price = %v, want 50000", created.Price)
	}

	// A free direction carries no price even when one is sent.
	free, err := svc.Create(ctx, &CreateDirectionRequest{
		Name:   "Bepul sinov",
		IsFree: true,
		Price:  9999,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create free: %v", err)
	}
	if free.Price != 0 {
		t.Errorf("free direction price = %v, want 0", free.Price)
	}

	// A paid direction without a price fails the business rule.
	_, err = svc.Create(ctx, &CreateDirectionRequest{Name: "Narxsiz"}, "admin-1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("priceless paid direction: %v, want ValidationError", err)
	}
}

func TestUpdateDirection(t *testing.T) {
	repo := newMemoryRepository()
	seedDirection(repo, "d1", false)
	svc := newTestDirectionService(repo)
	ctx := context.Background()

	name := "Iqtisodiyot"
	inactive := false
	updated, err := svc.Update(ctx, "d1", &UpdateDirectionRequest{
		Name:     &name,
		IsActive: &inactive,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Iqtisodiyot" || updated.IsActive {
		t.Errorf("update not applied: %+v", updated.Direction)
	}

	if _, err := svc.Update(ctx, "missing", &UpdateDirectionRequest{}, "admin-1"); !errors.Is(err, ErrDirectionNotFound) {
		t.Errorf("unknown direction: %v, want ErrDirectionNotFound", err)
	}
}

func TestListForStudent_AccessFlags(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d-free", true)
	seedDirection(repo, "d-paid", false)
	hidden := seedDirection(repo, "d-off", true)
	hidden.IsActive = false
	user.AllowedDirections = append(user.AllowedDirections, "d-paid")

	svc := newTestDirectionService(repo)

	responses, err := svc.ListForStudent(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("catalog size = %d, want 2 (inactive hidden)", len(responses))
	}

	byID := make(map[string]*DirectionResponse, len(responses))
	for _, r := range responses {
		byID[r.ID] = r
	}

	free := byID["d-free"]
	if !free.HasAccess || !free.CanStart || free.NeedsPayment {
		t.Errorf("free direction flags: %+v", free)
	}
	if free.TotalQuestions != 5 || free.MaxPossibleScore != 13.5 {
		t.Errorf("free direction totals: questions=%d max=%v", free.TotalQuestions, free.MaxPossibleScore)
	}

	paid := byID["d-paid"]
	if !paid.HasAccess || !paid.CanStart {
		t.Errorf("granted paid direction flags: %+v", paid)
	}

	// Exhausting the attempts flips the paid flags to payment-needed.
	user.TestAttempts = user.MaxTestAttempts
	user.FreeTestUsed = true
	responses, err = svc.ListForStudent(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	for _, r := range responses {
		if r.ID == "d-paid" {
			if r.CanStart || !r.NeedsPayment {
				t.Errorf("exhausted paid direction flags: %+v", r)
			}
		}
	}
}

func TestSubjectLifecycle(t *testing.T) {
	repo := newMemoryRepository()
	seedDirection(repo, "d1", true)
	svc := newTestDirectionService(repo)
	ctx := context.Background()

	subject, err := svc.CreateSubject(ctx, "d1", &CreateSubjectRequest{
		Name:              "Ona tili",
		Type:              models.SubjectMandatory,
		QuestionCount:     10,
		PointsPerQuestion: 1.1,
		Position:          2,
	}, "admin-1")
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}

	points := 2.1
	updated, err := svc.UpdateSubject(ctx, subject.ID, &UpdateSubjectRequest{PointsPerQuestion: &points}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateSubject: %v", err)
	}
	if updated.PointsPerQuestion != 2.1 {
		t.Errorf("PointsPerQuestion = %v, want 2.1", updated.PointsPerQuestion)
	}

	if err := svc.DeleteSubject(ctx, subject.ID, "admin-1"); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}
	if err := svc.DeleteSubject(ctx, subject.ID, "admin-1"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("second delete: %v, want ErrSubjectNotFound", err)
	}

	if _, err := svc.CreateSubject(ctx, "missing", &CreateSubjectRequest{
		Name: "Tarix", Type: models.SubjectMain, QuestionCount: 5, PointsPerQuestion: 3.1,
	}, "admin-1"); !errors.Is(err, ErrDirectionNotFound) {
		t.Errorf("unknown direction: %v, want ErrDirectionNotFound", err)
	}
}

func TestQuestionLifecycle(t *testing.T) {
	repo := newMemoryRepository()
	direction := seedDirection(repo, "d1", true)
	subjectID := direction.Subjects[0].ID
	svc := newTestDirectionService(repo)
	ctx := context.Background()

	question, err := svc.CreateQuestion(ctx, subjectID, &CreateQuestionRequest{
		Text:          "3 x 3 nechaga teng?",
		Options:       questionOptions("9", "6", "33", "12"),
		CorrectAnswer: models.LabelA,
	}, "admin-1")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	// The weight is snapshotted from the subject at creation time.
	if question.Points != direction.Subjects[0].PointsPerQuestion {
		t.Errorf("Points = %v, want %v", question.Points, direction.Subjects[0].PointsPerQuestion)
	}

	label := models.LabelB
	updated, err := svc.UpdateQuestion(ctx, question.ID, &UpdateQuestionRequest{CorrectAnswer: &label}, "admin-1")
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if updated.CorrectAnswer != models.LabelB {
		t.Errorf("CorrectAnswer = %s, want B", updated.CorrectAnswer)
	}

	if err := svc.DeleteQuestion(ctx, question.ID, "admin-1"); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if _, err := svc.UpdateQuestion(ctx, question.ID, &UpdateQuestionRequest{}, "admin-1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("update after delete: %v, want ErrQuestionNotFound", err)
	}

	// A question missing an option text never reaches the store.
	_, err = svc.CreateQuestion(ctx, subjectID, &CreateQuestionRequest{
		Text:          "Yarim savol",
		Options:       questionOptions("bor", "", "bor", "bor"),
		CorrectAnswer: models.LabelA,
	}, "admin-1")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("incomplete options: %v, want ValidationError", err)
	}
}

// questionOptions builds the four-option payload in label order.
func questionOptions(a, b, c, d string) validator.QuestionOptionsRequest {
	return validator.QuestionOptionsRequest{A: a, B: b, C: c, D: d}
}
