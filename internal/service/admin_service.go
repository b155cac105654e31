package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/validator"
)

// EnrollmentAPI is the set of admin-side remote calls.
type EnrollmentAPI interface {
	Enroll(ctx context.Context, req model.EnrollRequest) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context) ([]model.Enrollment, error)
	Unenroll(ctx context.Context, req model.UnenrollRequest) error
	CandidateResult(ctx context.Context, req model.ResultRequest) (*model.CandidateResult, error)
}

// AdminService wraps the enrollment collaborators. Every call needs an
// admin credential locally; the remote authority still enforces it.
type AdminService struct {
	api   EnrollmentAPI
	creds *CredentialStore
	log   zerolog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(api EnrollmentAPI, creds *CredentialStore, log zerolog.Logger) *AdminService {
	return &AdminService{
		api:   api,
		creds: creds,
		log:   log.With().Str("component", "admin").Logger(),
	}
}

// Enroll registers a candidate and returns the issued access code.
func (s *AdminService) Enroll(ctx context.Context, email string) (*model.Enrollment, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	req := model.EnrollRequest{Email: strings.TrimSpace(email)}
	if fields := validator.Struct(&req); fields != nil {
		return nil, response.Precondition("Enter a valid email.", fields)
	}

	enr, err := s.api.Enroll(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Str("email", req.Email).Msg("Enrollment failed")
		return nil, err
	}
	s.log.Info().Str("email", req.Email).Msg("Candidate enrolled")
	return enr, nil
}

// ListEnrollments returns all enrollments.
func (s *AdminService) ListEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.api.ListEnrollments(ctx)
}

// Unenroll removes an enrollment.
func (s *AdminService) Unenroll(ctx context.Context, id, email string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	req := model.UnenrollRequest{ID: strings.TrimSpace(id), Email: strings.TrimSpace(email)}
	if fields := validator.Struct(&req); fields != nil {
		return response.Precondition("Enter the enrollment id and email.", fields)
	}
	if err := s.api.Unenroll(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("id", req.ID).Msg("Unenroll failed")
		return err
	}
	s.log.Info().Str("id", req.ID).Msg("Candidate unenrolled")
	return nil
}

// CandidateResult looks up a candidate's latest result.
func (s *AdminService) CandidateResult(ctx context.Context, email string) (*model.CandidateResult, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	req := model.ResultRequest{Email: strings.TrimSpace(email)}
	if fields := validator.Struct(&req); fields != nil {
		return nil, response.Precondition("Enter a valid email.", fields)
	}
	return s.api.CandidateResult(ctx, req)
}

func (s *AdminService) requireAdmin() error {
	if s.creds.Role() != model.RoleAdmin {
		return response.Precondition("Sign in as an admin first.", nil)
	}
	return nil
}
