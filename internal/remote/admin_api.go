package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
)

const (
	pathAdminLogin       = "/api/admin/login"
	pathAdminEnroll      = "/api/admin/enroll"
	pathAdminEnrollments = "/api/admin/enrollments"
	pathAdminUnenroll    = "/api/admin/unenroll"
	pathAdminResult      = "/api/admin/result"
)

// AdminLogin exchanges admin credentials for an account-scoped token.
func (c *Client) AdminLogin(ctx context.Context, req model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	var out model.AdminLoginResponse
	if err := c.doJSON(ctx, http.MethodPost, pathAdminLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enroll registers a candidate email and returns the issued enrollment.
func (c *Client) Enroll(ctx context.Context, req model.EnrollRequest) (*model.Enrollment, error) {
	var out model.Enrollment
	if err := c.doJSON(ctx, http.MethodPost, pathAdminEnroll, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEnrollments returns every enrollment. Both a bare array and an object
// wrapping it under "enrollments" or "data" are accepted.
func (c *Client) ListEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	raw, err := c.do(ctx, http.MethodGet, pathAdminEnrollments, nil, "application/json")
	if err != nil {
		return nil, err
	}

	var list []model.Enrollment
	if err := json.Unmarshal(raw.Body, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Enrollments []model.Enrollment `json:"enrollments"`
		Data        []model.Enrollment `json:"data"`
	}
	if err := json.Unmarshal(raw.Body, &wrapped); err != nil {
		return nil, response.Wrap(response.KindValidationFailed, "", err)
	}
	if wrapped.Enrollments != nil {
		return wrapped.Enrollments, nil
	}
	return wrapped.Data, nil
}

// Unenroll removes an enrollment.
func (c *Client) Unenroll(ctx context.Context, req model.UnenrollRequest) error {
	return c.doJSON(ctx, http.MethodPost, pathAdminUnenroll, req, nil)
}

// CandidateResult fetches a candidate's latest result.
func (c *Client) CandidateResult(ctx context.Context, req model.ResultRequest) (*model.CandidateResult, error) {
	var out model.CandidateResult
	if err := c.doJSON(ctx, http.MethodPost, pathAdminResult, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
