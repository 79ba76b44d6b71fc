package service

import (
	"fmt"
	"strings"

	"venu/internal/model"
)

// Multi-select answers are stored as one delimited string. The encoding is
// lossy: a single answer containing the separator cannot be told apart from
// multiple selections.
const answerSeparator = ", "

// AnswerInput is one submitted answer. Values holds a single element for
// text/select/radio questions and any number of selections for checkboxes.
type AnswerInput struct {
	QuestionID int64    `json:"question_id"`
	Values     []string `json:"values"`
}

// AnswerValidationError reports a submitted answer that does not fit the
// event's question schema.
type AnswerValidationError struct {
	QuestionID int64
	Reason     string
}

func (e *AnswerValidationError) Error() string {
	return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
}

// ValidateAnswers checks submitted answers against the event's question
// schema: every answered question must exist, required questions must be
// answered, and choice-typed questions only accept their declared choices.
// The schema is interpreted uniformly from the question rows; no per-type
// code paths beyond the choice membership check.
func ValidateAnswers(questions []model.Question, choices []model.QuestionChoice, answers []AnswerInput) error {
	byID := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	allowed := make(map[int64]map[string]bool)
	for _, c := range choices {
		if allowed[c.QuestionID] == nil {
			allowed[c.QuestionID] = make(map[string]bool)
		}
		allowed[c.QuestionID][c.Text] = true
	}

	answered := make(map[int64]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return &AnswerValidationError{QuestionID: a.QuestionID, Reason: "unknown question"}
		}
		if answered[a.QuestionID] {
			return &AnswerValidationError{QuestionID: a.QuestionID, Reason: "answered more than once"}
		}
		answered[a.QuestionID] = true

		nonEmpty := 0
		for _, v := range a.Values {
			if strings.TrimSpace(v) != "" {
				nonEmpty++
			}
		}

		switch q.FieldType {
		case model.FieldText, model.FieldSelect, model.FieldRadio:
			if len(a.Values) > 1 {
				return &AnswerValidationError{QuestionID: a.QuestionID, Reason: "expects a single value"}
			}
		case model.FieldCheckbox:
			// any number of selections
		default:
			return &AnswerValidationError{QuestionID: a.QuestionID, Reason: "unsupported field type"}
		}

		if q.FieldType != model.FieldText {
			for _, v := range a.Values {
				if !allowed[q.ID][v] {
					return &AnswerValidationError{QuestionID: a.QuestionID, Reason: fmt.Sprintf("%q is not a valid choice", v)}
				}
			}
		}

		if q.Required && nonEmpty == 0 {
			return &AnswerValidationError{QuestionID: a.QuestionID, Reason: "answer is required"}
		}
	}

	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			return &AnswerValidationError{QuestionID: q.ID, Reason: "answer is required"}
		}
	}

	return nil
}

// EncodeAnswers flattens validated answers into answer rows, joining
// multi-select values into one delimited string.
func EncodeAnswers(answers []AnswerInput) []model.RegistrationAnswer {
	rows := make([]model.RegistrationAnswer, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, model.RegistrationAnswer{
			QuestionID: a.QuestionID,
			Value:      strings.Join(a.Values, answerSeparator),
		})
	}
	return rows
}
