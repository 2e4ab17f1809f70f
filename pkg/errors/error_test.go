package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "mockct/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{InvalidCredentials, "Invalid username or password"},
		{MissingSolution, "Solution file is missing or empty"},
		{SamplesNotPassed, "Sample tests did not pass, submission blocked"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_ExitCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		wantExit int
		category string
	}{
		{Success, 0, "ok"},
		{InvalidCredentials, 2, "authentication"},
		{MissingTestcases, 3, "missing_resource"},
		{CompilationError, 4, "execution"},
		{SubmitTooFrequently, 5, "submission"},
		{Canceled, 130, "canceled"},
		{InternalError, 1, "internal"},
		{PoolNotFound, 1, "exam"},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.ExitCode(); got != tt.wantExit {
				t.Errorf("ExitCode() = %v, want %v", got, tt.wantExit)
			}
			if got := tt.code.Category(); got != tt.category {
				t.Errorf("Category() = %v, want %v", got, tt.category)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CompilationError, "compile %s failed", "main.cc")

	want := "compile main.cc failed"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrappedErr := Wrap(originalErr, SubmissionFailed)

	if wrappedErr.Code != SubmissionFailed {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, SubmissionFailed)
	}
	if wrappedErr.Unwrap() != originalErr {
		t.Error("Unwrap() should return original error")
	}
	want := "Submission failed: connection refused"
	if wrappedErr.Error() != want {
		t.Errorf("Error() = %v, want %v", wrappedErr.Error(), want)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil error", err: nil, want: Success},
		{name: "custom error", err: New(InvalidCredentials), want: InvalidCredentials},
		{name: "wrapped custom error", err: fmt.Errorf("login: %w", New(InvalidCredentials)), want: InvalidCredentials},
		{name: "canceled", err: context.Canceled, want: Canceled},
		{name: "standard error", err: errors.New("standard error"), want: InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(MissingSolution)

	if !Is(err, MissingSolution) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, MissingTestcases) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, MissingSolution) {
		t.Error("Is() should return false for nil error")
	}
	if !IsCategory(err, "missing_resource") {
		t.Error("IsCategory() should match missing_resource")
	}
}

func TestMissingResourceError(t *testing.T) {
	err := MissingResourceError(ResourceTestcases, "/tmp/p/testcases")
	if err.Code != MissingTestcases {
		t.Errorf("Code = %v, want %v", err.Code, MissingTestcases)
	}
	kind, ok := ResourceKind(fmt.Errorf("validate: %w", err))
	if !ok || kind != ResourceTestcases {
		t.Errorf("ResourceKind() = %q, %v", kind, ok)
	}
	if _, ok := ResourceKind(New(CompilationError)); ok {
		t.Error("ResourceKind() should not match execution errors")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("problem_id", "required")
	if err.Code != ValidationFailed {
		t.Error("ValidationError should use ValidationFailed code")
	}
	if err.Details["field"] != "problem_id" {
		t.Error("Field detail not set")
	}
}
