package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/validator"
)

func newTestDashboardService(repo *memoryRepository) DashboardService {
	directions := NewDirectionService(repo, nil, testLogger(), validator.New())
	leaderboard := NewLeaderboardService(repo, nil, testLogger(), nil)
	notifications := NewNotificationService(repo, nil, testLogger(), validator.New(), nil, nil)
	return NewDashboardService(repo, nil, testLogger(), directions, leaderboard, notifications)
}

func TestStudentOverview(t *testing.T) {
	repo := newMemoryRepository()
	user := seedStudent(repo, "u1")
	seedStudent(repo, "u2")
	seedDirection(repo, "d1", true)

	for i, score := range []float64{5.2, 9.3} {
		id := string(rune('a' + i))
		repo.results[id] = &models.TestResult{
			ID: id, UserID: "u1", DirectionID: "d1", TotalScore: score, TotalQuestions: 5,
		}
		repo.resultOrder = append(repo.resultOrder, id)
	}
	repo.notifications["n1"] = &models.Notification{ID: "n1", UserID: "u1"}
	repo.notifOrder = append(repo.notifOrder, "n1")

	svc := newTestDashboardService(repo)

	dashboard, err := svc.StudentOverview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("StudentOverview: %v", err)
	}

	if len(dashboard.Directions) != 1 {
		t.Fatalf("directions = %d, want 1", len(dashboard.Directions))
	}
	status := dashboard.Directions[0]
	if status.AttemptsUsed != 2 {
		t.Errorf("AttemptsUsed = %d, want 2", status.AttemptsUsed)
	}
	if status.BestScore == nil || *status.BestScore != 9.3 {
		t.Errorf("BestScore = %v, want 9.3", status.BestScore)
	}

	if len(dashboard.RecentResults) != 2 {
		t.Errorf("recent results = %d, want 2", len(dashboard.RecentResults))
	}
	if dashboard.RecentResults[0].MaxPossibleScore != 13.5 {
		t.Errorf("MaxPossibleScore = %v, want 13.5", dashboard.RecentResults[0].MaxPossibleScore)
	}

	if dashboard.Rank == nil || dashboard.Rank.Rank != 1 {
		t.Errorf("rank = %+v, want first place", dashboard.Rank)
	}
	if dashboard.Unread != 1 {
		t.Errorf("unread = %d, want 1", dashboard.Unread)
	}

	user.IsBlocked = true
	if _, err := svc.StudentOverview(context.Background(), "u1"); !errors.Is(err, ErrUserBlocked) {
		t.Errorf("blocked student: %v, want ErrUserBlocked", err)
	}
}

func TestStudentOverview_NoHistory(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	seedDirection(repo, "d1", true)

	svc := newTestDashboardService(repo)

	dashboard, err := svc.StudentOverview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("StudentOverview: %v", err)
	}
	if dashboard.Directions[0].BestScore != nil {
		t.Error("BestScore should be absent without results")
	}
	if len(dashboard.RecentResults) != 0 {
		t.Errorf("recent results = %d, want 0", len(dashboard.RecentResults))
	}
	// Without results the student still ranks (with a zero total) rather
	// than being hidden from the board.
	if dashboard.Rank == nil {
		t.Error("expected a rank entry")
	}
}

func TestAdminOverview(t *testing.T) {
	repo := newMemoryRepository()
	seedAdmin(repo, "a1")
	seedStudent(repo, "u1")
	blocked := seedStudent(repo, "u2")
	blocked.IsBlocked = true

	svc := newTestDashboardService(repo)

	dashboard, err := svc.AdminOverview(context.Background(), "a1")
	if err != nil {
		t.Fatalf("AdminOverview: %v", err)
	}
	if dashboard.Stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", dashboard.Stats.TotalUsers)
	}
	if dashboard.Stats.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, want 1", dashboard.Stats.ActiveUsers)
	}

	_, err = svc.AdminOverview(context.Background(), "u1")
	var pErr *PermissionError
	if !errors.As(err, &pErr) {
		t.Errorf("student AdminOverview: %v, want PermissionError", err)
	}
}
