package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/artifact"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/remote"
	"github.com/stemsi/exstem-certify/internal/response"
)

// ExamSubmitter is the remote call that grades a session.
type ExamSubmitter interface {
	SubmitExam(ctx context.Context, req model.SubmitExamRequest) (*remote.RawResponse, error)
}

// SubmissionService sends a session's answers at most once and turns the
// response into a terminal result.
//
// The remote authority counts attempts server-side, so a session that
// reached Certified or Scored is never sent again. A failed call leaves the
// session untouched and may be retried with the same payload.
type SubmissionService struct {
	api     ExamSubmitter
	saver   artifact.Saver
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	spent    map[string]struct{}
	attempts int
}

// NewSubmissionService creates a new SubmissionService. timeout bounds the
// in-flight request; zero leaves it to the transport.
func NewSubmissionService(api ExamSubmitter, saver artifact.Saver, timeout time.Duration, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		api:     api,
		saver:   saver,
		timeout: timeout,
		log:     log.With().Str("component", "submission").Logger(),
		spent:   make(map[string]struct{}),
	}
}

// Attempts returns the attempt count reported by the last scored result.
func (s *SubmissionService) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Submit sends sess and returns its terminal result.
//
// Preconditions are checked locally and fail with PreconditionFailed before
// any request is made. Once the request is sent it is not cancellable by
// ctx; it ends with a response or the configured timeout.
func (s *SubmissionService) Submit(ctx context.Context, sess *exam.Session) (exam.Result, error) {
	if sess == nil {
		return nil, response.Precondition("No exam session is active.", nil)
	}

	if id := sess.ID(); id != "" && s.isSpent(id) {
		return nil, response.Precondition("This session has already been submitted.", nil)
	}

	snap, err := sess.BeginSubmit()
	if err != nil {
		return nil, s.preconditionError(sess, err)
	}

	log := s.log.With().Str("session_id", snap.SessionID).Logger()
	log.Info().Int("answers", len(snap.Answers)).Msg("Submitting exam")

	callCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, s.timeout)
		defer cancel()
	}

	raw, err := s.api.SubmitExam(callCtx, model.SubmitExamRequest{
		Answers:   snap.Answers,
		Name:      strings.TrimSpace(snap.CandidateName),
		SessionID: snap.SessionID,
	})
	if err != nil {
		return nil, s.fail(log, sess, err)
	}

	result, err := exam.Classify(raw.ContentType, raw.Body, snap.CandidateName)
	if err != nil {
		log.Warn().Str("content_type", raw.ContentType).Str("request_id", raw.RequestID).Msg("Unusable submission response")
		return nil, s.fail(log, sess, err)
	}

	switch r := result.(type) {
	case *exam.Certified:
		s.saveArtifact(callCtx, log, r)
	case *exam.Scored:
		s.mu.Lock()
		s.attempts = r.AttemptsUsed
		s.mu.Unlock()
	}

	s.markSpent(snap.SessionID)
	sess.Finish(result.State())

	log.Info().Str("state", string(result.State())).Msg("Exam submitted")
	return result, nil
}

// saveArtifact writes the certificate exactly once. A failure is kept on the
// result; the submission already counted and must not be repeated.
func (s *SubmissionService) saveArtifact(ctx context.Context, log zerolog.Logger, cert *exam.Certified) {
	if s.saver == nil {
		return
	}
	path, err := s.saver.Save(ctx, cert.SuggestedFilename, cert.ArtifactBytes)
	if err != nil {
		log.Error().Err(err).Str("filename", cert.SuggestedFilename).Msg("Failed to save certificate")
		cert.SaveErr = err
		return
	}
	cert.SavedPath = path
}

func (s *SubmissionService) fail(log zerolog.Logger, sess *exam.Session, err error) error {
	var rerr *response.Error
	if !errors.As(err, &rerr) {
		rerr = response.Wrap(response.KindNetworkFailure, "", err)
	}
	sess.Fail(rerr)

	log.Warn().
		Err(rerr).
		Str("kind", string(rerr.Kind)).
		Bool("retryable", rerr.Retryable()).
		Msg("Submission failed")
	return rerr
}

func (s *SubmissionService) preconditionError(sess *exam.Session, err error) error {
	switch {
	case errors.Is(err, exam.ErrSessionLocked):
		return response.Precondition("A submission is already in progress.", nil)
	case errors.Is(err, exam.ErrSessionClosed):
		return response.Precondition("This session is closed. Start a new attempt.", nil)
	case errors.Is(err, exam.ErrIncomplete):
		fields := make(map[string]string)
		if strings.TrimSpace(sess.CandidateName()) == "" {
			fields["name"] = "name is a required field"
		}
		if missing := sess.Missing(); len(missing) > 0 {
			fields["answers"] = fmt.Sprintf("%d question(s) unanswered: %s", len(missing), strings.Join(missing, ", "))
		}
		return response.Precondition("Answer every question and enter your name before submitting.", fields)
	default:
		return response.Precondition(err.Error(), nil)
	}
}

func (s *SubmissionService) isSpent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.spent[id]
	return ok
}

func (s *SubmissionService) markSpent(id string) {
	s.mu.Lock()
	s.spent[id] = struct{}{}
	s.mu.Unlock()
}
