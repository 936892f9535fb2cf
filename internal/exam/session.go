package exam

import (
	"errors"
	"sync"
	"time"

	"github.com/SaidjonAlixon/testblok/internal/models"
)

// Duration is the fixed exam length: 3 hours, in seconds.
const Duration = 3 * 60 * 60

// TabSwitchWarnThreshold is the number of tab switches tolerated before the
// UI must surface an escalating warning (warn on the 3rd and later).
const TabSwitchWarnThreshold = 2

const (
	EndReasonCompleted = "completed"
	EndReasonTimeout   = "time_out"
)

type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// ErrNoQuestions is returned by NewSession when the direction carries no
// questions. An empty direction never enters the Active state; the caller
// surfaces an informational screen with only an exit action.
var ErrNoQuestions = errors.New("exam: direction has no questions")

// FlatQuestion is one question in the flattened exam order, tagged with the
// name of the subject it came from.
type FlatQuestion struct {
	models.Question
	SubjectName string
}

// ScoreReport is the output of the Active -> Completed transition. It is
// produced exactly once per session.
type ScoreReport struct {
	TotalScore     float64
	CorrectAnswers int
	TotalQuestions int
	SubjectScores  map[string]models.SubjectScore
	Answers        map[string]models.AnswerLabel
	// MissedQuestionIDs lists every question answered wrong or left blank.
	MissedQuestionIDs []string
	IntegrityEvents   []models.IntegrityEvent
	TimeSpent         int // seconds
	CompletedAt       time.Time
	EndReason         string
}

// Session drives one timed attempt at a direction's full question set.
// Every transition is a total function over the defined state space: answers
// overwrite idempotently, cursor moves clamp, and a finished session ignores
// further mutations. A retake is a new Session, never a re-entered one.
type Session struct {
	mu sync.Mutex

	id          string
	userID      string
	directionID string

	questions []FlatQuestion
	known     map[string]int // question id -> flat index

	cursor      int
	answers     map[string]models.AnswerLabel
	remaining   int
	violations  []models.IntegrityEvent
	tabSwitches int

	state     State
	startedAt time.Time
	report    *ScoreReport
}

// NewSession flattens the direction's subjects in order (question order
// within each subject preserved) and starts the clock at the full duration.
func NewSession(id, userID string, direction *models.Direction) (*Session, error) {
	questions := Flatten(direction)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	known := make(map[string]int, len(questions))
	for i, q := range questions {
		known[q.ID] = i
	}

	return &Session{
		id:          id,
		userID:      userID,
		directionID: direction.ID,
		questions:   questions,
		known:       known,
		answers:     make(map[string]models.AnswerLabel),
		remaining:   Duration,
		state:       StateActive,
		startedAt:   time.Now(),
	}, nil
}

// Flatten builds the exam-order question list: subject order preserved,
// question order within each subject preserved.
func Flatten(direction *models.Direction) []FlatQuestion {
	var out []FlatQuestion
	for _, subject := range direction.Subjects {
		for _, q := range subject.Questions {
			out = append(out, FlatQuestion{Question: q, SubjectName: subject.Name})
		}
	}
	return out
}

func (s *Session) ID() string          { return s.id }
func (s *Session) UserID() string      { return s.userID }
func (s *Session) DirectionID() string { return s.directionID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectAnswer records the chosen label for a question, overwriting any
// previous choice. Unknown question ids are ignored so the answer map stays
// a subset of the active question set.
func (s *Session) SelectAnswer(questionID string, label models.AnswerLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	if _, ok := s.known[questionID]; !ok {
		return
	}
	s.answers[questionID] = label
}

// Advance moves the cursor forward one question, clamped at the last index.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive && s.cursor < len(s.questions)-1 {
		s.cursor++
	}
}

// Retreat moves the cursor back one question, clamped at zero.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive && s.cursor > 0 {
		s.cursor--
	}
}

// JumpTo sets the cursor directly, clamped into [0, lastIndex]. Used by the
// question navigator.
func (s *Session) JumpTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.questions)-1 {
		index = len(s.questions) - 1
	}
	s.cursor = index
}

// Tick decrements the countdown by one second. Reaching zero forces the
// transition to Completed with a timeout end reason.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finish(EndReasonTimeout)
	}
}

// Complete is the explicit user-triggered transition to Completed. It is
// legal from any question index and idempotent once finished.
func (s *Session) Complete() *ScoreReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		s.finish(EndReasonCompleted)
	}
	return s.report
}

// RecordViolation appends an integrity event and returns it together with
// whether the UI must escalate a warning. Only tab switches count toward the
// warning threshold; no event ever alters the score.
func (s *Session) RecordViolation(kind models.ViolationKind) (models.IntegrityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 1
	if kind == models.ViolationTabSwitch {
		s.tabSwitches++
		count = s.tabSwitches
	}

	event := models.IntegrityEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		Count:     count,
	}
	s.violations = append(s.violations, event)

	warn := kind == models.ViolationTabSwitch && s.tabSwitches > TabSwitchWarnThreshold
	return event, warn
}

// Result returns the score report, or nil while the session is still active.
func (s *Session) Result() *ScoreReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// finish runs the scoring reduction. Callers hold s.mu.
func (s *Session) finish(reason string) {
	s.state = StateCompleted

	subjectScores := make(map[string]models.SubjectScore)
	for _, q := range s.questions {
		subjectScores[q.SubjectName] = models.SubjectScore{}
	}

	totalScore := 0.0
	correct := 0
	var missed []string
	for _, q := range s.questions {
		acc := subjectScores[q.SubjectName]
		acc.Total++
		if s.answers[q.ID] == q.CorrectAnswer {
			totalScore += q.Points
			correct++
			acc.Score += q.Points
			acc.Correct++
		} else {
			missed = append(missed, q.ID)
		}
		subjectScores[q.SubjectName] = acc
	}

	answers := make(map[string]models.AnswerLabel, len(s.answers))
	for id, label := range s.answers {
		answers[id] = label
	}
	violations := make([]models.IntegrityEvent, len(s.violations))
	copy(violations, s.violations)

	s.report = &ScoreReport{
		TotalScore:        totalScore,
		CorrectAnswers:    correct,
		TotalQuestions:    len(s.questions),
		SubjectScores:     subjectScores,
		Answers:           answers,
		MissedQuestionIDs: missed,
		IntegrityEvents:   violations,
		TimeSpent:         Duration - s.remaining,
		CompletedAt:       time.Now(),
		EndReason:         reason,
	}
}
