package response

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorBody is the failure payload of the remote authority. Plain
// {"message": "..."} bodies and the enveloped {"error": {...}} form are both
// accepted.
type ErrorBody struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type envelope struct {
	ErrorBody
	Error *ErrorBody `json:"error,omitempty"`
}

// Remote error codes that pin the kind regardless of status.
const (
	CodeAlreadyRedeemed = "ALREADY_REDEEMED"
	CodeAccessCodeUsed  = "ACCESS_CODE_USED"
)

// ParseErrorBody extracts the failure message from a response body. It
// returns a zero ErrorBody when the body is not a recognizable error.
func ParseErrorBody(body []byte) ErrorBody {
	var env envelope
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		return ErrorBody{}
	}
	if env.Error != nil && env.Error.Message != "" {
		return *env.Error
	}
	return env.ErrorBody
}

// FromStatus classifies a non-2xx response into an *Error. The message is
// drawn from the body when present, otherwise the kind's fallback is used.
func FromStatus(status int, body []byte) *Error {
	eb := ParseErrorBody(body)

	kind := kindForStatus(status)
	switch strings.ToUpper(eb.Code) {
	case CodeAlreadyRedeemed, CodeAccessCodeUsed:
		kind = KindAlreadyRedeemed
	}

	msg := eb.Message
	if msg == "" {
		msg = GetMessage(kind)
	}

	return &Error{
		Kind:    kind,
		Message: msg,
		Fields:  eb.Fields,
		Status:  status,
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status >= http.StatusInternalServerError:
		return KindServerFault
	case status == http.StatusConflict, status == http.StatusGone:
		return KindAlreadyRedeemed
	case status == http.StatusBadRequest,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusNotFound:
		return KindInvalidCredentials
	case status >= http.StatusBadRequest:
		return KindRejected
	default:
		return KindServerFault
	}
}
