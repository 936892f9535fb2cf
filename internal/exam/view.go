package exam

import "github.com/SaidjonAlixon/testblok/internal/models"

// QuestionView is a question as shown to the student: the correct label is
// stripped, the subject name and flat index are attached.
type QuestionView struct {
	ID           string                 `json:"id"`
	Text         string                 `json:"text"`
	ImageURL     *string                `json:"image_url,omitempty"`
	Options      models.QuestionOptions `json:"options"`
	OptionImages models.OptionImages    `json:"option_images"`
	Subject      string                 `json:"subject"`
	Points       float64                `json:"points"`
	Index        int                    `json:"index"`
	IsFirst      bool                   `json:"is_first"`
	IsLast       bool                   `json:"is_last"`
}

// NavigatorEntry is one cell of the question navigator.
type NavigatorEntry struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Index    int    `json:"index"`
	Answered bool   `json:"answered"`
}

// Snapshot is the session state the UI renders between transitions.
type Snapshot struct {
	ID             string                        `json:"id"`
	DirectionID    string                        `json:"direction_id"`
	State          State                         `json:"state"`
	Remaining      int                           `json:"remaining_seconds"`
	Cursor         int                           `json:"cursor"`
	TotalQuestions int                           `json:"total_questions"`
	Answered       int                           `json:"answered"`
	TabSwitches    int                           `json:"tab_switches"`
	Answers        map[string]models.AnswerLabel `json:"answers"`
	Question       QuestionView                  `json:"question"`
	Navigator      []NavigatorEntry              `json:"navigator"`
}

// Snapshot renders the current session state for the UI.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string]models.AnswerLabel, len(s.answers))
	for id, label := range s.answers {
		answers[id] = label
	}

	navigator := make([]NavigatorEntry, len(s.questions))
	for i, q := range s.questions {
		_, answered := s.answers[q.ID]
		navigator[i] = NavigatorEntry{
			ID:       q.ID,
			Subject:  q.SubjectName,
			Index:    i,
			Answered: answered,
		}
	}

	return Snapshot{
		ID:             s.id,
		DirectionID:    s.directionID,
		State:          s.state,
		Remaining:      s.remaining,
		Cursor:         s.cursor,
		TotalQuestions: len(s.questions),
		Answered:       len(s.answers),
		TabSwitches:    s.tabSwitches,
		Answers:        answers,
		Question:       s.questionView(s.cursor),
		Navigator:      navigator,
	}
}

// questionView renders one question without its correct label. Callers hold
// s.mu and pass an in-range index.
func (s *Session) questionView(index int) QuestionView {
	q := s.questions[index]
	return QuestionView{
		ID:           q.ID,
		Text:         q.Text,
		ImageURL:     q.ImageURL,
		Options:      q.Options.Data(),
		OptionImages: q.OptionImages.Data(),
		Subject:      q.SubjectName,
		Points:       q.Points,
		Index:        index,
		IsFirst:      index == 0,
		IsLast:       index == len(s.questions)-1,
	}
}
