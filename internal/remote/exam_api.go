package remote

import (
	"context"
	"net/http"

	"github.com/stemsi/exstem-certify/internal/model"
)

const (
	pathExamStart  = "/api/exam/start"
	pathExamSubmit = "/api/exam/submit"
)

// StartExam redeems an access code for a token, session and question set.
func (c *Client) StartExam(ctx context.Context, req model.StartExamRequest) (*model.StartExamResponse, error) {
	var out model.StartExamResponse
	if err := c.doJSON(ctx, http.MethodPost, pathExamStart, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitExam posts a session's answers and returns the body undecoded: the
// authority answers with either a certificate document or a JSON score, and
// only the content type tells which.
func (c *Client) SubmitExam(ctx context.Context, req model.SubmitExamRequest) (*RawResponse, error) {
	return c.do(ctx, http.MethodPost, pathExamSubmit, req, "application/pdf, application/json")
}
