package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SaidjonAlixon/testblok/internal/models"
	"github.com/SaidjonAlixon/testblok/internal/repositories"
)

const exportTimeFormat = "2006-01-02 15:04"

type exportService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	leaderboard LeaderboardService
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, leaderboard LeaderboardService) ExportService {
	return &exportService{
		repo:        repo,
		db:          db,
		logger:      logger,
		leaderboard: leaderboard,
	}
}

func (s *exportService) ExportResults(ctx context.Context, adminID string) ([]byte, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	results, err := s.repo.Result().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Natijalar"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"#", "F.I.Sh.", "Email", "Yo'nalish", "Umumiy ball", "To'g'ri javoblar", "Savollar soni", "Foiz", "Sarflangan vaqt (min)", "Topshirilgan sana"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, result := range results {
		row := i + 2
		values := []interface{}{
			i + 1,
			result.UserName,
			result.UserEmail,
			result.DirectionName,
			result.TotalScore,
			result.CorrectAnswers,
			result.TotalQuestions,
			fmt.Sprintf("%d%%", result.Percentage()),
			result.TimeSpent / 60,
			result.CompletedAt.Format(exportTimeFormat),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("results exported", "rows", len(results), "admin_id", adminID)
	return buf.Bytes(), nil
}

func (s *exportService) ExportLeaderboard(ctx context.Context, adminID string) ([]byte, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	entries, err := s.leaderboard.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reyting"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"O'rin", "F.I.Sh.", "Umumiy ball", "Testlar soni"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, entry := range entries {
		row := i + 2
		values := []interface{}{entry.Rank, entry.FullName, entry.TotalScore, entry.TestCount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportQuestions reads questions from the first sheet of an xlsx upload.
// Expected columns: text, option A, B, C, D, correct label. The first row is
// treated as a header and skipped.
func (s *exportService) ImportQuestions(ctx context.Context, subjectID string, data []byte, adminID string) (int, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return 0, err
	}

	subject, err := s.repo.Direction().GetSubject(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrSubjectNotFound
		}
		return 0, fmt.Errorf("failed to get subject: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, NewBusinessRuleError("import", "file is not a valid xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, NewBusinessRuleError("import", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet: %w", err)
	}

	questions := make([]*models.Question, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		question, err := s.parseQuestionRow(subject, row, len(questions))
		if err != nil {
			return 0, NewBusinessRuleError("import", fmt.Sprintf("row %d: %s", i+1, err))
		}
		if question == nil {
			continue // blank row
		}
		questions = append(questions, question)
	}

	if len(questions) == 0 {
		return 0, NewBusinessRuleError("import", "no questions found in the sheet")
	}

	if err := s.repo.Direction().CreateQuestions(ctx, nil, questions); err != nil {
		return 0, fmt.Errorf("failed to store questions: %w", err)
	}

	s.logger.Info("questions imported", "subject_id", subject.ID, "count", len(questions), "admin_id", adminID)
	return len(questions), nil
}

func (s *exportService) parseQuestionRow(subject *models.Subject, row []string, offset int) (*models.Question, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	text := cell(0)
	if text == "" {
		return nil, nil
	}

	options := models.QuestionOptions{A: cell(1), B: cell(2), C: cell(3), D: cell(4)}
	if options.A == "" || options.B == "" || options.C == "" || options.D == "" {
		return nil, fmt.Errorf("all four options are required")
	}

	label := models.AnswerLabel(strings.ToUpper(cell(5)))
	valid := false
	for _, l := range models.Labels {
		if label == l {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("correct answer must be one of A, B, C, D")
	}

	return &models.Question{
		ID:            uuid.New().String(),
		SubjectID:     subject.ID,
		Text:          text,
		Options:       datatypes.NewJSONType(options),
		CorrectAnswer: label,
		Points:        subject.PointsPerQuestion,
		Position:      subject.QuestionCount + offset,
	}, nil
}

func (s *exportService) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := s.repo.User().GetByID(ctx, nil, adminID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !admin.IsAdmin() {
		return NewPermissionError(adminID, "", "export", "execute", "admin role required")
	}
	return nil
}
