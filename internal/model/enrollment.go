package model

import "time"

// AdminLoginRequest is the payload for an admin sign-in.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AdminLoginResponse carries the account-scoped admin token.
type AdminLoginResponse struct {
	Token string `json:"token" validate:"required"`
}

// EnrollRequest enrolls a candidate email and issues an access code.
type EnrollRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UnenrollRequest removes an enrollment.
type UnenrollRequest struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ResultRequest looks up a candidate's latest result by email.
type ResultRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Enrollment is one enrolled candidate as reported by the remote authority.
type Enrollment struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	AccessCode string     `json:"accessCode,omitempty"`
	Used       bool       `json:"used"`
	Attempts   int        `json:"attempts"`
	Passed     bool       `json:"passed"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// CandidateResult is a candidate's most recent graded outcome.
type CandidateResult struct {
	Email      string     `json:"email"`
	Name       string     `json:"name,omitempty"`
	Score      int        `json:"score"`
	Percentage float64    `json:"percentage"`
	Passed     bool       `json:"passed"`
	Attempts   int        `json:"attempts"`
	TakenAt    *time.Time `json:"takenAt,omitempty"`
}
