package service

import (
	"context"
	"testing"

	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	require.NoError(t, h.auth.AdminLogin(context.Background(), testutil.AdminEmail, testutil.AdminPassword))
	return h
}

func TestAdminCallsRequireAdminRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.admin.Enroll(ctx, "new@example.com")
	assert.ErrorIs(t, err, response.ErrPreconditionFailed)

	_, err = h.admin.ListEnrollments(ctx)
	assert.ErrorIs(t, err, response.ErrPreconditionFailed)

	assert.ErrorIs(t, h.admin.Unenroll(ctx, "id", "new@example.com"), response.ErrPreconditionFailed)

	_, err = h.admin.CandidateResult(ctx, candidateEmail)
	assert.ErrorIs(t, err, response.ErrPreconditionFailed)

	// A candidate credential is not enough either.
	h.redeem(t)
	_, err = h.admin.ListEnrollments(ctx)
	assert.ErrorIs(t, err, response.ErrPreconditionFailed)
}

func TestAdminEnrollAndList(t *testing.T) {
	h := adminHarness(t)
	ctx := context.Background()

	enr, err := h.admin.Enroll(ctx, " new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", enr.Email)
	assert.Len(t, enr.AccessCode, 8)
	assert.NotEmpty(t, enr.ID)

	list, err := h.admin.ListEnrollments(ctx)
	require.NoError(t, err)
	emails := make([]string, 0, len(list))
	for _, e := range list {
		emails = append(emails, e.Email)
	}
	assert.ElementsMatch(t, []string{candidateEmail, "new@example.com"}, emails)

	_, err = h.admin.Enroll(ctx, "new@example.com")
	assert.ErrorIs(t, err, response.ErrAlreadyRedeemed, "409 maps to the conflict kind")
}

func TestAdminEnrollInvalidEmail(t *testing.T) {
	h := adminHarness(t)
	_, err := h.admin.Enroll(context.Background(), "nope")
	assert.ErrorIs(t, err, response.ErrPreconditionFailed)
}

func TestAdminUnenroll(t *testing.T) {
	h := adminHarness(t)
	ctx := context.Background()

	enr, err := h.admin.Enroll(ctx, "gone@example.com")
	require.NoError(t, err)

	require.NoError(t, h.admin.Unenroll(ctx, enr.ID, enr.Email))

	err = h.admin.Unenroll(ctx, enr.ID, enr.Email)
	assert.ErrorIs(t, err, response.ErrInvalidCredentials)

	assert.ErrorIs(t, h.admin.Unenroll(ctx, "", enr.Email), response.ErrPreconditionFailed)
}

func TestAdminCandidateResult(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess := h.redeem(t)
	answerAll(t, sess, 3, "Jane Doe")
	_, err := h.submission.Submit(ctx, sess)
	require.NoError(t, err)

	require.NoError(t, h.auth.AdminLogin(ctx, testutil.AdminEmail, testutil.AdminPassword))
	res, err := h.admin.CandidateResult(ctx, candidateEmail)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, 3, res.Score)
	assert.InDelta(t, 60.0, res.Percentage, 0.0001)
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.Attempts)

	_, err = h.admin.CandidateResult(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, response.ErrInvalidCredentials)
}

func TestAdminSessionSurvivesNewStore(t *testing.T) {
	h := adminHarness(t)

	// A second process over the same repository resumes the admin session.
	creds := NewCredentialStore(h.repo, h.creds.log)
	require.NoError(t, creds.Load(context.Background()))
	assert.Equal(t, model.RoleAdmin, creds.Role())
}
