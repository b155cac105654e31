package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/validator"
)

// ExamStarter is the remote call that redeems an access code.
type ExamStarter interface {
	StartExam(ctx context.Context, req model.StartExamRequest) (*model.StartExamResponse, error)
}

// minChoiceOptions is the least number of options a single_choice question
// may carry.
const minChoiceOptions = 2

// RedemptionService exchanges an email and one-time access code for an exam
// session and a candidate credential.
type RedemptionService struct {
	api   ExamStarter
	creds *CredentialStore
	slot  *exam.Slot
	log   zerolog.Logger
}

// NewRedemptionService creates a new RedemptionService.
func NewRedemptionService(api ExamStarter, creds *CredentialStore, slot *exam.Slot, log zerolog.Logger) *RedemptionService {
	return &RedemptionService{
		api:   api,
		creds: creds,
		slot:  slot,
		log:   log.With().Str("component", "redemption").Logger(),
	}
}

// Redeem validates and canonicalizes the inputs, redeems the code and, only
// when every step succeeds, stores the candidate credential and installs a
// fresh session. Either both the credential and the session change or
// neither does.
func (s *RedemptionService) Redeem(ctx context.Context, email, accessCode string) (*exam.Session, error) {
	req := model.StartExamRequest{
		Email:      strings.TrimSpace(email),
		AccessCode: strings.ToUpper(strings.TrimSpace(accessCode)),
	}
	if fields := validator.Struct(&req); fields != nil {
		return nil, response.Precondition("Enter a valid email and access code.", fields)
	}

	if cur := s.slot.Current(); cur != nil && cur.State() == exam.StateSubmitting {
		return nil, response.Precondition("A submission is in progress.", nil)
	}

	log := s.log.With().Str("email", req.Email).Logger()

	resp, err := s.api.StartExam(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(response.KindOf(err))).Msg("Redemption failed")
		return nil, err
	}

	if err := checkStartResponse(resp); err != nil {
		log.Warn().Err(err).Msg("Redemption returned a malformed question set")
		return nil, err
	}

	cred := model.Credential{Token: resp.Token, Role: model.RoleCandidate}
	if err := s.creds.Set(ctx, cred); err != nil {
		log.Error().Err(err).Msg("Failed to persist candidate credential")
		return nil, response.Wrap(response.KindStoreFailed, "", err)
	}

	sess := exam.NewSession(resp.SessionID, resp.Questions)
	s.slot.Replace(sess)

	log.Info().
		Str("session_id", resp.SessionID).
		Int("questions", len(resp.Questions)).
		Msg("Exam session started")

	return sess, nil
}

// Current returns the active session, or nil.
func (s *RedemptionService) Current() *exam.Session {
	return s.slot.Current()
}

// Abandon drops the active session without submitting it. The candidate
// credential is kept.
func (s *RedemptionService) Abandon() error {
	cur := s.slot.Current()
	if cur == nil {
		return nil
	}
	if cur.State() == exam.StateSubmitting {
		return response.Precondition("A submission is in progress.", nil)
	}
	s.slot.Release()
	cur.Clear()
	s.log.Info().Msg("Exam session abandoned")
	return nil
}

// checkStartResponse enforces what the client's struct tags cannot: unique
// ids and enough options on single_choice questions. Token and session id
// are rechecked so no ExamStarter can install a half-issued session.
func checkStartResponse(resp *model.StartExamResponse) error {
	seen := make(map[string]struct{}, len(resp.Questions))
	fields := make(map[string]string)

	if resp.Token == "" {
		fields["token"] = "token is a required field"
	}
	if resp.SessionID == "" {
		fields["sessionId"] = "sessionId is a required field"
	}
	if len(resp.Questions) == 0 {
		fields["questions"] = "questions must contain at least 1 item"
	}

	for i, q := range resp.Questions {
		if _, dup := seen[q.ID]; dup {
			fields[fmt.Sprintf("questions[%d].id", i)] = fmt.Sprintf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Type == model.QuestionTypeSingleChoice && len(q.Options) < minChoiceOptions {
			fields[fmt.Sprintf("questions[%d].options", i)] = fmt.Sprintf("options must contain at least %d items", minChoiceOptions)
		}
	}

	if len(fields) > 0 {
		return &response.Error{
			Kind:    response.KindValidationFailed,
			Message: response.GetMessage(response.KindValidationFailed),
			Fields:  fields,
		}
	}
	return nil
}
