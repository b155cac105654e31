package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeTrueFalse    QuestionType = "true_false"
	QuestionTypeSingleChoice QuestionType = "single_choice"
)

// Question represents a single exam question as issued by the remote
// authority. Immutable once issued.
type Question struct {
	ID      string       `json:"id" validate:"required"`
	Prompt  string       `json:"question" validate:"required"`
	Type    QuestionType `json:"type" validate:"required,oneof=true_false single_choice"`
	Options []string     `json:"options,omitempty"`
}
