package exam

import (
	"encoding/json"
	"mime"
	"strings"

	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/validator"
)

// Content types the submission endpoint may answer with.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJSON = "application/json"
)

// defaultAttempts applies when a score report omits the attempt count.
const defaultAttempts = 1

// Classify turns a successful submission response into a Result using only
// the declared content type. A certificate type yields Certified, JSON
// yields Scored, and anything else is a ServerFault. The body is never
// inspected to pick the branch.
func Classify(contentType string, body []byte, candidateName string) (Result, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, response.Wrap(response.KindServerFault, "The exam server sent an unrecognized response type.", err)
	}

	switch {
	case mediaType == ContentTypePDF:
		if len(body) == 0 {
			return nil, response.New(response.KindServerFault, "The exam server sent an empty certificate.")
		}
		// Surrounding whitespace is dropped before sanitizing so "  Jane "
		// names the file like "Jane".
		return &Certified{
			ArtifactBytes:     body,
			SuggestedFilename: CertificateFilename(strings.TrimSpace(candidateName)),
		}, nil

	case mediaType == ContentTypeJSON:
		return decodeScored(body)

	default:
		return nil, response.New(response.KindServerFault, "The exam server sent an unrecognized response type.")
	}
}

func decodeScored(body []byte) (*Scored, error) {
	var report model.ScoreReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, response.Wrap(response.KindValidationFailed, "", err)
	}
	if fields := validator.Struct(&report); fields != nil {
		return nil, &response.Error{
			Kind:    response.KindValidationFailed,
			Message: response.GetMessage(response.KindValidationFailed),
			Fields:  fields,
		}
	}

	attempts := report.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}

	return &Scored{
		Score:        *report.Score,
		Percentage:   *report.Percentage,
		AttemptsUsed: attempts,
		Passed:       *report.Passed,
	}, nil
}
