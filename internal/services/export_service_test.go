package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SaidjonAlixon/testblok/internal/models"
)

func newTestExportService(repo *memoryRepository) ExportService {
	leaderboard := NewLeaderboardService(repo, nil, testLogger(), nil)
	return NewExportService(repo, nil, testLogger(), leaderboard)
}

// buildQuestionSheet renders rows into the xlsx layout ImportQuestions reads:
// text, options A-D, correct label, first row is the header.
func buildQuestionSheet(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Savol", "A", "B", "C", "D", "To'g'ri javob"}
	all := append([][]interface{}{header}, rows...)
	for r, row := range all {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue("Sheet1", cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("render workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExportResults(t *testing.T) {
	repo := newMemoryRepository()
	seedAdmin(repo, "a1")
	seedStudent(repo, "u1")
	repo.results["r1"] = &models.TestResult{
		ID: "r1", UserID: "u1", UserName: "Aziza Karimova",
		DirectionName: "Huquqshunoslik", TotalScore: 9.3,
		CorrectAnswers: 3, TotalQuestions: 5,
		TimeSpent: 600, CompletedAt: time.Now(),
	}
	repo.resultOrder = append(repo.resultOrder, "r1")

	svc := newTestExportService(repo)

	data, err := svc.ExportResults(context.Background(), "a1")
	if err != nil {
		t.Fatalf("ExportResults: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not an xlsx workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Natijalar")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one result", len(rows))
	}
	if rows[1][1] != "Aziza Karimova" || rows[1][3] != "Huquqshunoslik" {
		t.Errorf("unexpected data row: %v", rows[1])
	}
}

func TestExportLeaderboard(t *testing.T) {
	repo := newMemoryRepository()
	seedAdmin(repo, "a1")
	seedStudent(repo, "u1")
	repo.results["r1"] = &models.TestResult{ID: "r1", UserID: "u1", TotalScore: 9.3}
	repo.resultOrder = append(repo.resultOrder, "r1")

	svc := newTestExportService(repo)

	data, err := svc.ExportLeaderboard(context.Background(), "a1")
	if err != nil {
		t.Fatalf("ExportLeaderboard: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not an xlsx workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Reyting")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one entry", len(rows))
	}
	if rows[1][0] != "1" {
		t.Errorf("first rank cell = %q, want 1", rows[1][0])
	}
}

func TestExport_RequiresAdmin(t *testing.T) {
	repo := newMemoryRepository()
	seedStudent(repo, "u1")
	svc := newTestExportService(repo)

	_, err := svc.ExportResults(context.Background(), "u1")
	var pErr *PermissionError
	if !errors.As(err, &pErr) {
		t.Fatalf("student export: %v, want PermissionError", err)
	}
}

func TestImportQuestions(t *testing.T) {
	repo := newMemoryRepository()
	seedAdmin(repo, "a1")
	direction := seedDirection(repo, "d1", true)
	subjectID := direction.Subjects[1].ID // Fizika, 2.1 points

	svc := newTestExportService(repo)
	ctx := context.Background()

	sheet := buildQuestionSheet(t, [][]interface{}{
		{"Yorug'lik tezligi qancha?", "300000 km/s", "150000 km/s", "3000 km/s", "30 km/s", "a"},
		{"", "", "", "", "", ""}, // blank row is skipped
		{"Suv qaysi haroratda qaynaydi?", "100°C", "90°C", "80°C", "120°C", "A"},
	})

	count, err := svc.ImportQuestions(ctx, subjectID, sheet, "a1")
	if err != nil {
		t.Fatalf("ImportQuestions: %v", err)
	}
	if count != 2 {
		t.Fatalf("imported = %d, want 2", count)
	}

	stored := repo.directions["d1"].Subjects[1].Questions
	if len(stored) != 4 {
		t.Fatalf("subject now has %d questions, want the seeded 2 plus 2", len(stored))
	}
	imported := stored[2]
	if imported.Points != 2.1 {
		t.Errorf("Points = %v, want the subject weight 2.1", imported.Points)
	}
	if imported.CorrectAnswer != models.LabelA {
		t.Errorf("CorrectAnswer = %s, want A (lowercase label normalized)", imported.CorrectAnswer)
	}
}

func TestImportQuestions_Rejections(t *testing.T) {
	repo := newMemoryRepository()
	seedAdmin(repo, "a1")
	direction := seedDirection(repo, "d1", true)
	subjectID := direction.Subjects[0].ID

	svc := newTestExportService(repo)
	ctx := context.Background()

	var bErr *BusinessRuleError

	if _, err := svc.ImportQuestions(ctx, subjectID, []byte("not an xlsx"), "a1"); !errors.As(err, &bErr) {
		t.Errorf("garbage upload: %v, want BusinessRuleError", err)
	}

	missingOption := buildQuestionSheet(t, [][]interface{}{
		{"Savol", "bor", "", "bor", "bor", "A"},
	})
	if _, err := svc.ImportQuestions(ctx, subjectID, missingOption, "a1"); !errors.As(err, &bErr) {
		t.Errorf("missing option: %v, want BusinessRuleError", err)
	}

	badLabel := buildQuestionSheet(t, [][]interface{}{
		{"Savol", "1", "2", "3", "4", "E"},
	})
	if _, err := svc.ImportQuestions(ctx, subjectID, badLabel, "a1"); !errors.As(err, &bErr) {
		t.Errorf("bad label: %v, want BusinessRuleError", err)
	}

	empty := buildQuestionSheet(t, nil)
	if _, err := svc.ImportQuestions(ctx, subjectID, empty, "a1"); !errors.As(err, &bErr) {
		t.Errorf("empty sheet: %v, want BusinessRuleError", err)
	}

	if _, err := svc.ImportQuestions(ctx, "missing", empty, "a1"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("unknown subject: %v, want ErrSubjectNotFound", err)
	}
}
