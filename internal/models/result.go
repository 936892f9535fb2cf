package models

import (
	"time"

	"gorm.io/datatypes"
)

type ViolationKind string

const (
	ViolationTabSwitch  ViolationKind = "tab_switch"
	ViolationWindowBlur ViolationKind = "window_blur"
	ViolationRightClick ViolationKind = "right_click"
	ViolationDevTools   ViolationKind = "devtools_attempt"
)

// IntegrityEvent is one logged suspicious action during an exam. Events are
// appended verbatim and never deduplicated; they never affect the score.
type IntegrityEvent struct {
	Kind      ViolationKind `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Count     int           `json:"count"`
}

// SubjectScore is the per-subject slice of a result.
type SubjectScore struct {
	Score   float64 `json:"score"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
}

// TestResult is the immutable record of one completed exam session.
type TestResult struct {
	ID          string `json:"id" gorm:"primaryKey;size:64"`
	SessionID   string `json:"session_id" gorm:"not null;uniqueIndex;size:64"`
	UserID      string `json:"user_id" gorm:"not null;index;size:64"`
	DirectionID string `json:"direction_id" gorm:"not null;index;size:64"`

	// Denormalized display fields, matching what the user and direction were
	// called at the time of the attempt.
	UserName      string `json:"user_name" gorm:"size:100"`
	UserEmail     string `json:"user_email" gorm:"size:255"`
	DirectionName string `json:"direction_name" gorm:"size:200"`

	TotalScore     float64 `json:"total_score" gorm:"not null"`
	CorrectAnswers int     `json:"correct_answers" gorm:"not null"`
	TotalQuestions int     `json:"total_questions" gorm:"not null"`

	// SubjectScores maps subject name to its score/correct/total slice.
	SubjectScores datatypes.JSONType[map[string]SubjectScore] `json:"subject_scores" gorm:"type:jsonb"`

	// Answers is the raw question-id -> chosen-label map.
	Answers datatypes.JSONType[map[string]AnswerLabel] `json:"answers" gorm:"type:jsonb"`

	// IntegrityEvents is the full violation log of the session.
	IntegrityEvents datatypes.JSONSlice[IntegrityEvent] `json:"integrity_events" gorm:"type:jsonb"`

	TimeSpent   int       `json:"time_spent" gorm:"not null"` // seconds
	CompletedAt time.Time `json:"completed_at" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`

	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Direction Direction `json:"-" gorm:"foreignKey:DirectionID"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// Percentage is the correct-answer ratio as a whole percent. A zero-question
// result yields 0, never a division by zero.
func (r *TestResult) Percentage() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return int(float64(r.CorrectAnswers)/float64(r.TotalQuestions)*100 + 0.5)
}
