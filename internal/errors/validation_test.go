package errors

import (
	"testing"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("question_text", "is required", "")

	if err.Field != "question_text" {
		t.Errorf("Expected field to be 'question_text', got '%s'", err.Field)
	}

	expected := "validation error on field 'question_text': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestBlankError(t *testing.T) {
	err := NewBlankError("correct_answers", 2, "has no correct answer", fillblank.CodeMissingAnswer)

	if err.BlankID == nil || *err.BlankID != 2 {
		t.Fatalf("Expected blank id 2, got %v", err.BlankID)
	}

	expected := "validation error on field 'correct_answers' (blank 2): has no correct answer"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("field1", "message1", nil))
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("field2", "message2", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestFromReport(t *testing.T) {
	tmpl := fillblank.Parse("{BLANK_1} and {BLANK_2}")
	configs := fillblank.SyncTextConfigs(tmpl, nil)
	answers := []fillblank.CorrectAnswer{
		{BlankID: 1, AnswerText: "salt"},
		{BlankID: 9, AnswerText: "orphan"},
	}

	report := fillblank.ValidateText(tmpl, configs, answers, fillblank.ValidateOptions{})
	errs := FromReport(report)

	if len(errs) != 1 {
		t.Fatalf("Expected warnings to be dropped and 1 error kept, got %d", len(errs))
	}
	if errs[0].Rule != fillblank.CodeMissingAnswer {
		t.Errorf("Expected rule '%s', got '%s'", fillblank.CodeMissingAnswer, errs[0].Rule)
	}
	if errs[0].BlankID == nil || *errs[0].BlankID != 2 {
		t.Errorf("Expected blank id 2, got %v", errs[0].BlankID)
	}
}

func TestFromReport_Ready(t *testing.T) {
	tmpl := fillblank.Parse("{BLANK_1}")
	report := fillblank.ValidateText(tmpl, fillblank.SyncTextConfigs(tmpl, nil),
		[]fillblank.CorrectAnswer{{BlankID: 1, AnswerText: "x"}}, fillblank.ValidateOptions{})

	if errs := FromReport(report); errs != nil {
		t.Errorf("Expected nil for a ready report, got %v", errs)
	}
}
