package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/artifact"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/remote"
	"github.com/stemsi/exstem-certify/internal/repository"
	"github.com/stemsi/exstem-certify/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	candidateEmail = "jane@example.com"
	candidateCode  = "A1B2C3D4"
)

type harness struct {
	authority  *testutil.Authority
	repo       *repository.MemoryCredentialRepository
	creds      *CredentialStore
	slot       *exam.Slot
	client     *remote.Client
	redemption *RedemptionService
	submission *SubmissionService
	auth       *AuthService
	admin      *AdminService
	certDir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()

	h := &harness{
		authority: testutil.NewAuthority(t),
		repo:      repository.NewMemoryCredentialRepository(),
		slot:      exam.NewSlot(),
		certDir:   filepath.Join(t.TempDir(), "certs"),
	}
	h.authority.Enroll(candidateEmail, candidateCode)

	h.creds = NewCredentialStore(h.repo, log)
	h.client = remote.NewClient(h.authority.URL(), 5*time.Second, h.creds, log)
	h.redemption = NewRedemptionService(h.client, h.creds, h.slot, log)
	h.submission = NewSubmissionService(h.client, artifact.NewFileSaver(h.certDir, log), 5*time.Second, log)
	h.auth = NewAuthService(h.client, h.creds, h.slot, log)
	h.admin = NewAdminService(h.client, h.creds, log)
	return h
}

// redeem starts a session for the default candidate.
func (h *harness) redeem(t *testing.T) *exam.Session {
	t.Helper()
	sess, err := h.redemption.Redeem(context.Background(), candidateEmail, candidateCode)
	require.NoError(t, err)
	return sess
}

// answerAll fills sess, answering the first `correct` questions correctly
// and the rest wrongly.
func answerAll(t *testing.T, sess *exam.Session, correct int, name string) {
	t.Helper()
	for i, q := range sess.Questions() {
		ans := testutil.CorrectAnswers[q.ID]
		if i >= correct {
			ans = wrongAnswer(q)
		}
		require.NoError(t, sess.RecordAnswer(q.ID, ans))
	}
	require.NoError(t, sess.SetCandidateName(name))
}

func wrongAnswer(q model.Question) model.Answer {
	want := testutil.CorrectAnswers[q.ID]
	if q.Type == model.QuestionTypeTrueFalse {
		return model.BoolAnswer(want.String() != "true")
	}
	for _, opt := range q.Options {
		if opt != want.String() {
			return model.TextAnswer(opt)
		}
	}
	return model.TextAnswer("")
}

// failingRepo fails every write.
type failingRepo struct {
	repository.CredentialRepository
}

var errDiskFull = errors.New("disk full")

func (failingRepo) Save(context.Context, model.Credential) error { return errDiskFull }
func (failingRepo) Delete(context.Context) error                 { return errDiskFull }
