package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubjectType string

const (
	SubjectMain      SubjectType = "main"
	SubjectMandatory SubjectType = "mandatory"
)

type AnswerLabel string

const (
	LabelA AnswerLabel = "A"
	LabelB AnswerLabel = "B"
	LabelC AnswerLabel = "C"
	LabelD AnswerLabel = "D"
)

// Labels is the fixed option order of every question.
var Labels = []AnswerLabel{LabelA, LabelB, LabelC, LabelD}

// Direction is a career track: an ordered set of weighted subjects whose
// questions together form one exam.
type Direction struct {
	ID          string  `json:"id" gorm:"primaryKey;size:64"`
	Name        string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	IsActive    bool    `json:"is_active" gorm:"not null;default:true;index"`
	IsFree      bool    `json:"is_free" gorm:"not null;default:false"`
	Price       float64 `json:"price" gorm:"not null;default:0" validate:"min=0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Subjects []Subject `json:"subjects" gorm:"foreignKey:DirectionID;constraint:OnDelete:CASCADE"`
}

// Subject is a scored topic inside a direction. Main subjects carry the
// higher per-question weight; mandatory subjects share a fixed lower one.
type Subject struct {
	ID          string      `json:"id" gorm:"primaryKey;size:64"`
	DirectionID string      `json:"direction_id" gorm:"not null;index;size:64"`
	Name        string      `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Type        SubjectType `json:"type" gorm:"not null;default:mandatory" validate:"required,oneof=main mandatory"`

	QuestionCount     int     `json:"question_count" gorm:"not null;default:0" validate:"min=0"`
	PointsPerQuestion float64 `json:"points_per_question" gorm:"not null" validate:"required,gt=0"`

	// Position preserves the admin-defined subject order within the direction.
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"questions" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

// QuestionOptions holds the four labeled option texts.
type QuestionOptions struct {
	A string `json:"A" validate:"required"`
	B string `json:"B" validate:"required"`
	C string `json:"C" validate:"required"`
	D string `json:"D" validate:"required"`
}

// OptionImages holds optional per-label image references.
type OptionImages struct {
	A *string `json:"A,omitempty"`
	B *string `json:"B,omitempty"`
	C *string `json:"C,omitempty"`
	D *string `json:"D,omitempty"`
}

type Question struct {
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	SubjectID string `json:"subject_id" gorm:"not null;index;size:64"`
	Text      string `json:"text" gorm:"type:text;not null" validate:"required"`
	ImageURL  *string `json:"image_url" gorm:"size:500"`

	// Options and optional option images stored as JSONB.
	Options      datatypes.JSONType[QuestionOptions] `json:"options" gorm:"type:jsonb"`
	OptionImages datatypes.JSONType[OptionImages]    `json:"option_images" gorm:"type:jsonb"`

	CorrectAnswer AnswerLabel `json:"correct_answer" gorm:"not null;size:1" validate:"required,oneof=A B C D"`

	// Points is a denormalized copy of the subject's PointsPerQuestion taken
	// at creation time; scoring reads this field, never the subject position.
	Points float64 `json:"points" gorm:"not null" validate:"required,gt=0"`

	// Position preserves question order within the subject.
	Position int `json:"position" gorm:"not null;default:0"`

	// WrongAnswerCount accumulates misses for the analytics view.
	WrongAnswerCount int `json:"wrong_answer_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Direction) TableName() string { return "directions" }
func (Subject) TableName() string   { return "subjects" }
func (Question) TableName() string  { return "questions" }

// TotalQuestions counts questions across all subjects.
func (d *Direction) TotalQuestions() int {
	n := 0
	for _, s := range d.Subjects {
		n += len(s.Questions)
	}
	return n
}

// MaxPossibleScore sums the persisted per-question point values.
func (d *Direction) MaxPossibleScore() float64 {
	total := 0.0
	for _, s := range d.Subjects {
		for _, q := range s.Questions {
			total += q.Points
		}
	}
	return total
}
