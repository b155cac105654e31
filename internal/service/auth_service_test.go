package service

import (
	"context"
	"testing"

	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.auth.AdminLogin(context.Background(), "  "+testutil.AdminEmail+" ", testutil.AdminPassword))

	assert.Equal(t, model.RoleAdmin, h.creds.Role())
	persisted, err := h.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, persisted.Role)
	assert.Equal(t, h.creds.Token(), persisted.Token)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	err := h.auth.AdminLogin(context.Background(), testutil.AdminEmail, "nope")

	require.ErrorIs(t, err, response.ErrInvalidCredentials)
	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
}

func TestAdminLoginPrecondition(t *testing.T) {
	h := newHarness(t)

	err := h.auth.AdminLogin(context.Background(), "not-an-email", "")

	require.ErrorIs(t, err, response.ErrPreconditionFailed)
	assert.Equal(t, 0, h.authority.StartCalls())
}

func TestAdminLoginStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.creds.repo = failingRepo{h.repo}

	err := h.auth.AdminLogin(context.Background(), testutil.AdminEmail, testutil.AdminPassword)

	require.ErrorIs(t, err, response.ErrStoreFailed)
	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
}

func TestLogoutClearsCredentialAndSession(t *testing.T) {
	h := newHarness(t)
	sess := h.redeem(t)
	require.NoError(t, sess.RecordAnswer("q1", model.BoolAnswer(true)))

	require.NoError(t, h.auth.Logout(context.Background()))

	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
	assert.Nil(t, h.slot.Current())
	assert.Empty(t, sess.ID())
	assert.ErrorIs(t, sess.RecordAnswer("q1", model.BoolAnswer(true)), exam.ErrSessionClosed)
	_, err := h.repo.Load(context.Background())
	assert.Error(t, err)
}

func TestLogoutWhenAnonymous(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.auth.Logout(context.Background()))
	assert.Equal(t, model.RoleAnonymous, h.creds.Role())
}
