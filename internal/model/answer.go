package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerKind discriminates the value held by an Answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerBool
	AnswerOption
	AnswerText
)

// Answer is a candidate's response to one question: a boolean, an option
// index, or free text. Its shape is not checked against the question type;
// the remote grader owns that.
type Answer struct {
	kind   AnswerKind
	b      bool
	option int
	text   string
}

// BoolAnswer answers a true/false question.
func BoolAnswer(v bool) Answer { return Answer{kind: AnswerBool, b: v} }

// OptionAnswer answers a single-choice question by option index.
func OptionAnswer(i int) Answer { return Answer{kind: AnswerOption, option: i} }

// TextAnswer answers with free text, including an option's label.
func TextAnswer(s string) Answer { return Answer{kind: AnswerText, text: s} }

// Kind returns which value the answer holds.
func (a Answer) Kind() AnswerKind { return a.kind }

// IsZero reports whether the answer was never set.
func (a Answer) IsZero() bool { return a.kind == AnswerNone }

func (a Answer) String() string {
	switch a.kind {
	case AnswerBool:
		return strconv.FormatBool(a.b)
	case AnswerOption:
		return "#" + strconv.Itoa(a.option)
	case AnswerText:
		return a.text
	default:
		return ""
	}
}

// MarshalJSON encodes the answer as the matching JSON scalar.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerBool:
		return json.Marshal(a.b)
	case AnswerOption:
		return json.Marshal(a.option)
	case AnswerText:
		return json.Marshal(a.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON boolean, integer or string.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Answer{}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*a = BoolAnswer(data[0] == 't')
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	default:
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("answer: unsupported value %s", data)
		}
		*a = OptionAnswer(n)
	}
	return nil
}
