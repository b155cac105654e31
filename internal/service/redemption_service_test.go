package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/repository"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStarter struct {
	got  []model.StartExamRequest
	resp *model.StartExamResponse
	err  error
}

func (r *recordingStarter) StartExam(_ context.Context, req model.StartExamRequest) (*model.StartExamResponse, error) {
	r.got = append(r.got, req)
	return r.resp, r.err
}

func validStartResponse() *model.StartExamResponse {
	return &model.StartExamResponse{
		Token:     "opaque-token",
		SessionID: "sess-1",
		Questions: testutil.Questions,
	}
}

func TestRedeemStartsSession(t *testing.T) {
	h := newHarness(t)

	sess := h.redeem(t)

	assert.NotEmpty(t, sess.ID())
	assert.Len(t, sess.Questions(), len(testutil.Questions))
	assert.Empty(t, sess.CandidateName())
	assert.Equal(t, len(testutil.Questions), len(sess.Missing()))
	assert.Same(t, sess, h.slot.Current())

	assert.Equal(t, model.RoleCandidate, h.creds.Role())
	persisted, err := h.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, h.creds.Token(), persisted.Token)
	assert.Equal(t, model.RoleCandidate, persisted.Role)
}

func TestRedeemCanonicalizesAccessCode(t *testing.T) {
	starter := &recordingStarter{resp: validStartResponse()}
	creds := NewCredentialStore(repository.NewMemoryCredentialRepository(), zerolog.Nop())
	svc := NewRedemptionService(starter, creds, exam.NewSlot(), zerolog.Nop())

	_, err := svc.Redeem(context.Background(), "  jane@example.com ", " a1b2c3d4 ")
	require.NoError(t, err)

	require.Len(t, starter.got, 1)
	assert.Equal(t, "A1B2C3D4", starter.got[0].AccessCode)
	assert.Equal(t, "jane@example.com", starter.got[0].Email)
}

func TestRedeemLowercaseCodeAgainstAuthority(t *testing.T) {
	h := newHarness(t)

	_, err := h.redemption.Redeem(context.Background(), candidateEmail, "a1b2c3d4")
	require.NoError(t, err)
	assert.NotEmpty(t, h.authority.LastHeaders().Get(response.HeaderRequestID))
}

func TestRedeemPreconditionMakesNoRequest(t *testing.T) {
	h := newHarness(t)

	cases := map[string][2]string{
		"empty email":  {"   ", candidateCode},
		"bad email":    {"jane", candidateCode},
		"empty code":   {candidateEmail, "  "},
		"non alphanum": {candidateEmail, "A1-B2"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.redemption.Redeem(context.Background(), in[0], in[1])
			require.ErrorIs(t, err, response.ErrPreconditionFailed)
		})
	}
	assert.Equal(t, 0, h.authority.StartCalls())
	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
}

func TestRedeemInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.redemption.Redeem(context.Background(), candidateEmail, "WRONG123")

	require.ErrorIs(t, err, response.ErrInvalidCredentials)
	var rerr *response.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "Invalid email or access code", rerr.UserMessage())
	assert.False(t, rerr.Retryable())
	assert.Nil(t, h.slot.Current())
	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
}

func TestRedeemAlreadyRedeemed(t *testing.T) {
	h := newHarness(t)
	first := h.redeem(t)
	token := h.creds.Token()

	_, err := h.redemption.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrAlreadyRedeemed)
	assert.False(t, response.KindOf(err).Retryable())
	assert.Same(t, first, h.slot.Current(), "failed redemption leaves the session in place")
	assert.Equal(t, token, h.creds.Token())
}

func TestRedeemNetworkFailure(t *testing.T) {
	h := newHarness(t)
	h.authority.Server.Close()

	_, err := h.redemption.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrNetworkFailure)
	assert.True(t, response.KindOf(err).Retryable())
}

func TestRedeemServerFault(t *testing.T) {
	starter := &recordingStarter{err: response.FromStatus(http.StatusInternalServerError, []byte(`{"message":"db down"}`))}
	creds := NewCredentialStore(repository.NewMemoryCredentialRepository(), zerolog.Nop())
	slot := exam.NewSlot()
	svc := NewRedemptionService(starter, creds, slot, zerolog.Nop())

	_, err := svc.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrServerFault)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, slot.Current())
}

func TestRedeemMalformedQuestionSet(t *testing.T) {
	resp := validStartResponse()
	resp.Questions = []model.Question{
		{ID: "q1", Prompt: "a", Type: model.QuestionTypeTrueFalse},
		{ID: "q1", Prompt: "b", Type: model.QuestionTypeSingleChoice, Options: []string{"only"}},
	}
	starter := &recordingStarter{resp: resp}
	creds := NewCredentialStore(repository.NewMemoryCredentialRepository(), zerolog.Nop())
	svc := NewRedemptionService(starter, creds, exam.NewSlot(), zerolog.Nop())

	_, err := svc.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrValidationFailed)
	var rerr *response.Error
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Fields, "questions[1].id")
	assert.Contains(t, rerr.Fields, "questions[1].options")
	assert.Equal(t, model.RoleAnonymous, creds.Role())
}

func TestRedeemMissingTokenIsValidationFailure(t *testing.T) {
	starter := &recordingStarter{resp: &model.StartExamResponse{SessionID: "s", Questions: testutil.Questions}}
	creds := NewCredentialStore(repository.NewMemoryCredentialRepository(), zerolog.Nop())
	slot := exam.NewSlot()
	svc := NewRedemptionService(starter, creds, slot, zerolog.Nop())

	_, err := svc.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrValidationFailed)
	assert.Nil(t, slot.Current())
	assert.Equal(t, model.RoleAnonymous, creds.Role())
}

func TestRedeemIsAtomicOnStoreFailure(t *testing.T) {
	h := newHarness(t)
	prev := exam.NewSession("previous", testutil.Questions)
	h.slot.Replace(prev)

	creds := NewCredentialStore(failingRepo{}, zerolog.Nop())
	svc := NewRedemptionService(h.client, creds, h.slot, zerolog.Nop())

	_, err := svc.Redeem(context.Background(), candidateEmail, candidateCode)

	require.ErrorIs(t, err, response.ErrStoreFailed)
	require.ErrorIs(t, err, errDiskFull)
	assert.Same(t, prev, h.slot.Current())
	assert.Equal(t, "previous", prev.ID())
	assert.Equal(t, model.RoleAnonymous, creds.Role())
}

func TestRedeemReplacesPreviousAttempt(t *testing.T) {
	h := newHarness(t)
	prev := exam.NewSession("previous", testutil.Questions)
	h.slot.Replace(prev)

	next := h.redeem(t)

	assert.Same(t, next, h.slot.Current())
	assert.Empty(t, prev.ID(), "starting a new attempt clears the old session")
}

func TestAbandon(t *testing.T) {
	h := newHarness(t)
	sess := h.redeem(t)

	require.NoError(t, h.redemption.Abandon())

	assert.Nil(t, h.redemption.Current())
	assert.Empty(t, sess.ID())
	assert.Equal(t, model.RoleCandidate, h.creds.Role(), "abandoning keeps the credential")
	require.NoError(t, h.redemption.Abandon())
}
