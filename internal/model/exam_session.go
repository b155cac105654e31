package model

// StartExamRequest is the payload for redeeming an access code.
type StartExamRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	AccessCode string `json:"accessCode" validate:"required,alphanum,max=64"`
}

// StartExamResponse is returned by the remote authority on redemption.
type StartExamResponse struct {
	Token     string     `json:"token" validate:"required"`
	SessionID string     `json:"sessionId" validate:"required"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// SubmitExamRequest carries a session's answers to the grader.
type SubmitExamRequest struct {
	Answers   map[string]Answer `json:"answers"`
	Name      string            `json:"name"`
	SessionID string            `json:"sessionId"`
}

// ScoreReport is the JSON body returned when no certificate is issued.
// Pointer fields distinguish a missing value from a zero one.
type ScoreReport struct {
	Score      *int     `json:"score" validate:"required,min=0"`
	Percentage *float64 `json:"percentage" validate:"required,min=0,max=100"`
	Passed     *bool    `json:"passed" validate:"required"`
	Attempts   int      `json:"attempts" validate:"min=0"`
}
