package service

import (
	"errors"
	"testing"

	"venu/internal/model"
)

func testSchema() ([]model.Question, []model.QuestionChoice) {
	questions := []model.Question{
		{ID: 1, Label: "Company", FieldType: model.FieldText, Required: true},
		{ID: 2, Label: "Meal", FieldType: model.FieldRadio, Required: true},
		{ID: 3, Label: "Workshops", FieldType: model.FieldCheckbox},
		{ID: 4, Label: "Notes", FieldType: model.FieldText},
	}
	choices := []model.QuestionChoice{
		{ID: 10, QuestionID: 2, Text: "Veggie"},
		{ID: 11, QuestionID: 2, Text: "Meat"},
		{ID: 12, QuestionID: 3, Text: "Go"},
		{ID: 13, QuestionID: 3, Text: "Rust"},
		{ID: 14, QuestionID: 3, Text: "K8s"},
	}
	return questions, choices
}

func TestValidateAnswers(t *testing.T) {
	t.Parallel()
	questions, choices := testSchema()

	valid := []AnswerInput{
		{QuestionID: 1, Values: []string{"Acme"}},
		{QuestionID: 2, Values: []string{"Veggie"}},
		{QuestionID: 3, Values: []string{"Go", "K8s"}},
	}
	if err := ValidateAnswers(questions, choices, valid); err != nil {
		t.Fatalf("ValidateAnswers(valid) = %v", err)
	}

	tests := []struct {
		name       string
		answers    []AnswerInput
		questionID int64
	}{
		{
			"unknown question",
			append(valid, AnswerInput{QuestionID: 99, Values: []string{"x"}}),
			99,
		},
		{
			"duplicate answer",
			append(valid, AnswerInput{QuestionID: 1, Values: []string{"again"}}),
			1,
		},
		{
			"multiple values on radio",
			[]AnswerInput{
				{QuestionID: 1, Values: []string{"Acme"}},
				{QuestionID: 2, Values: []string{"Veggie", "Meat"}},
			},
			2,
		},
		{
			"choice not in schema",
			[]AnswerInput{
				{QuestionID: 1, Values: []string{"Acme"}},
				{QuestionID: 2, Values: []string{"Fish"}},
			},
			2,
		},
		{
			"checkbox with invalid choice",
			append(valid[:2:2], AnswerInput{QuestionID: 3, Values: []string{"Go", "COBOL"}}),
			3,
		},
		{
			"required question missing",
			[]AnswerInput{{QuestionID: 1, Values: []string{"Acme"}}},
			2,
		},
		{
			"required answer blank",
			[]AnswerInput{
				{QuestionID: 1, Values: []string{"   "}},
				{QuestionID: 2, Values: []string{"Veggie"}},
			},
			1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAnswers(questions, choices, tc.answers)
			var ave *AnswerValidationError
			if !errors.As(err, &ave) {
				t.Fatalf("ValidateAnswers() = %v, want AnswerValidationError", err)
			}
			if ave.QuestionID != tc.questionID {
				t.Errorf("error names question %d, want %d", ave.QuestionID, tc.questionID)
			}
		})
	}

	t.Run("optional questions may be omitted", func(t *testing.T) {
		answers := []AnswerInput{
			{QuestionID: 1, Values: []string{"Acme"}},
			{QuestionID: 2, Values: []string{"Meat"}},
		}
		if err := ValidateAnswers(questions, choices, answers); err != nil {
			t.Fatalf("ValidateAnswers() = %v", err)
		}
	})
}

func TestEncodeAnswers(t *testing.T) {
	t.Parallel()
	rows := EncodeAnswers([]AnswerInput{
		{QuestionID: 1, Values: []string{"Acme"}},
		{QuestionID: 3, Values: []string{"Go", "Rust", "K8s"}},
		{QuestionID: 4, Values: nil},
	})
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Value != "Acme" {
		t.Errorf("single value = %q, want Acme", rows[0].Value)
	}
	if rows[1].Value != "Go, Rust, K8s" {
		t.Errorf("multi value = %q, want %q", rows[1].Value, "Go, Rust, K8s")
	}
	if rows[2].Value != "" {
		t.Errorf("empty value = %q, want empty", rows[2].Value)
	}
}
