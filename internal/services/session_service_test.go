package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SaidjonAlixon/testblok/internal/exam"
	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

func newTestSessionService(repo *memoryRepository) SessionService {
	return NewSessionService(repo, nil, testLogger(), validator.New(), nil)
}

// answerAll submits one answer per question: the correct A for every subject
// in correctSubjects, B otherwise.
func answerAll(t *testing.T, svc SessionService, snap *exam.Snapshot, userID string, correctSubjects ...string) {
	t.Helper()
	correct := make(map[string]bool, len(correctSubjects))
	for _, s := range correctSubjects {
		correct[s] = true
	}
	for _, entry := range snap.Navigator {
		label := models.LabelB
		if correct[entry.Subject] {
			label = models.LabelA
		}
		err := svc.Answer(context.Background(), snap.ID, userID, &AnswerRequest{
			QuestionID: entry.ID,
			Answer:     label,
		})
		if err != nil {
			t.Fatalf("Answer %s: %v", entry.ID, err)
		}
	}
}

func TestSessionFlow_StartAnswerComplete(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.State != exam.StateActive {
		t.Fatalf("state = %s, want active", snap.State)
	}
	if snap.TotalQuestions != 5 {
		t.Fatalf("TotalQuestions = %d, want 5", snap.TotalQuestions)
	}

	// Matematika answered correctly, Fizika missed.
	answerAll(t, svc, snap, "u1", "Matematika")

	result, err := svc.Complete(ctx, snap.ID, "u1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.TotalScore != 9.3 {
		t.Errorf("TotalScore = %v, want 9.3", result.TotalScore)
	}
	if result.CorrectAnswers != 3 {
		t.Errorf("CorrectAnswers = %d, want 3", result.CorrectAnswers)
	}
	if result.MaxPossibleScore != 13.5 {
		t.Errorf("MaxPossibleScore = %v, want 13.5", result.MaxPossibleScore)
	}
	if result.UserName != user.FullName {
		t.Errorf("UserName = %q, want %q", result.UserName, user.FullName)
	}

	// Completion spends the attempt and consumes the free trial.
	if user.TestAttempts != 1 {
		t.Errorf("TestAttempts = %d, want 1", user.TestAttempts)
	}
	if !user.FreeTestUsed {
		t.Error("FreeTestUsed not set")
	}

	// Missed questions feed the difficulty statistics.
	for _, id := range []string{"q-Fizika-0", "q-Fizika-1"} {
		if repo.wrongAnswerCounts[id] != 1 {
			t.Errorf("wrong answer count for %s = %d, want 1", id, repo.wrongAnswerCounts[id])
		}
	}

	// The session is no longer the user's active one.
	if _, err := svc.Active(ctx, "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Active after complete: %v, want ErrSessionNotFound", err)
	}
}

func TestStart_ResumesActiveSession(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	first, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second start opened a new session %s, want resume of %s", second.ID, first.ID)
	}
}

func TestStart_AccessDenied(t *testing.T) {
	repo := newMemoryRepository()
	seedDirection(repo, "d-free", true)
	seedDirection(repo, "d-paid", false)
	inactive := seedDirection(repo, "d-off", true)
	inactive.IsActive = false

	svc := newTestSessionService(repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		prepare   func(u *models.User)
		direction string
		wantErr   error
	}{
		{
			name:      "blocked user",
			prepare:   func(u *models.User) { u.IsBlocked = true },
			direction: "d-free",
			wantErr:   ErrUserBlocked,
		},
		{
			name:      "inactive direction",
			prepare:   func(u *models.User) {},
			direction: "d-off",
			wantErr:   ErrDirectionInactive,
		},
		{
			name:      "paid direction without grant",
			prepare:   func(u *models.User) {},
			direction: "d-paid",
			wantErr:   ErrPaymentRequired,
		},
		{
			name: "granted but exhausted",
			prepare: func(u *models.User) {
				u.AllowedDirections = append(u.AllowedDirections, "d-paid")
				u.TestAttempts = u.MaxTestAttempts
			},
			direction: "d-paid",
			wantErr:   ErrAttemptsExhausted,
		},
		{
			name:      "unknown direction",
			prepare:   func(u *models.User) {},
			direction: "missing",
			wantErr:   ErrDirectionNotFound,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := seedStudent(repo, "u"+strings.Repeat("x", i+1))
			tt.prepare(user)

			_, err := svc.Start(ctx, user.ID, tt.direction)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Start: %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStart_FreeTrialOnlyOnce(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	user.FreeTestUsed = true
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)

	_, err := svc.Start(context.Background(), "u1", "d1")
	var pErr *PermissionError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PermissionError after the free trial, got %v", err)
	}
}

func TestExit_DiscardsWithoutAttempt(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	answerAll(t, svc, snap, "u1", "Matematika", "Fizika")

	if err := svc.Exit(ctx, snap.ID, "u1"); err != nil {
		t.Fatalf("Exit: %v", err)
	}

	if user.TestAttempts != 0 {
		t.Errorf("TestAttempts = %d, want 0", user.TestAttempts)
	}
	if user.FreeTestUsed {
		t.Error("FreeTestUsed set on exit")
	}
	if _, err := svc.GetResult(ctx, snap.ID, "u1"); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("GetResult after exit: %v, want ErrResultNotFound", err)
	}

	// The abandoned attempt can be restarted.
	if _, err := svc.Start(ctx, "u1", "d1"); err != nil {
		t.Fatalf("restart after exit: %v", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedStudent(repo, "u2")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = svc.Snapshot(ctx, snap.ID, "u2")
	var pErr *PermissionError
	if !errors.As(err, &pErr) {
		t.Errorf("expected PermissionError for foreign session, got %v", err)
	}

	if _, err := svc.Snapshot(ctx, "missing", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReportViolation(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The first two tab switches pass silently, the third warns.
	for i := 1; i <= 3; i++ {
		resp, err := svc.ReportViolation(ctx, snap.ID, "u1", &ViolationRequest{Kind: models.ViolationTabSwitch})
		if err != nil {
			t.Fatalf("ReportViolation %d: %v", i, err)
		}
		if resp.Event.Count != i {
			t.Errorf("violation %d: count = %d", i, resp.Event.Count)
		}
		wantWarn := i >= 3
		if resp.Warn != wantWarn {
			t.Errorf("violation %d: warn = %v, want %v", i, resp.Warn, wantWarn)
		}
		if resp.Suppress {
			t.Errorf("violation %d: tab switch should not be suppressed", i)
		}
	}

	resp, err := svc.ReportViolation(ctx, snap.ID, "u1", &ViolationRequest{Kind: models.ViolationRightClick})
	if err != nil {
		t.Fatalf("ReportViolation right click: %v", err)
	}
	if !resp.Suppress {
		t.Error("right click should be suppressed")
	}
	if resp.Warn {
		t.Error("right click should not warn")
	}
}

func TestNavigate(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)
	svc := newTestSessionService(repo)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	next, err := svc.Navigate(ctx, snap.ID, "u1", &NavigateRequest{Action: "next"})
	if err != nil {
		t.Fatalf("Navigate next: %v", err)
	}
	if next.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", next.Cursor)
	}

	jumped, err := svc.Navigate(ctx, snap.ID, "u1", &NavigateRequest{Action: "jump", Index: 4})
	if err != nil {
		t.Fatalf("Navigate jump: %v", err)
	}
	if jumped.Cursor != 4 {
		t.Errorf("cursor = %d, want 4", jumped.Cursor)
	}
	if !jumped.Question.IsLast {
		t.Error("expected the last question")
	}
}

func TestListResults_StudentSeesOnlyOwn(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedStudent(repo, "u2")
	seedAdmin(repo, "a1")
	repo.results["r1"] = &models.TestResult{ID: "r1", SessionID: "s1", UserID: "u1", TotalScore: 5}
	repo.results["r2"] = &models.TestResult{ID: "r2", SessionID: "s2", UserID: "u2", TotalScore: 7}
	repo.resultOrder = append(repo.resultOrder, "r1", "r2")

	svc := newTestSessionService(repo)
	ctx := context.Background()

	own, err := svc.ListResults(ctx, repositories.ResultFilters{}, "u1")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(own.Results) != 1 || own.Results[0].UserID != "u1" {
		t.Errorf("student should see only their results, got %d", len(own.Results))
	}

	all, err := svc.ListResults(ctx, repositories.ResultFilters{}, "a1")
	if err != nil {
		t.Fatalf("admin ListResults: %v", err)
	}
	if len(all.Results) != 2 {
		t.Errorf("admin should see all results, got %d", len(all.Results))
	}

	// A student may not read a foreign result, an admin may.
	if _, err := svc.GetResult(ctx, "s2", "u1"); err == nil {
		t.Error("expected an error reading a foreign result")
	}
	if _, err := svc.GetResult(ctx, "s2", "a1"); err != nil {
		t.Errorf("admin GetResult: %v", err)
	}
}
