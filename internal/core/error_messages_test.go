package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped malformed input",
			err:         fmt.Errorf("load batch: %w: bare \" in non-quoted field", ErrMalformedInput),
			wantCode:    "IMP001",
			wantMessage: "The file could not be read as delimited text",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("%w: 12MB exceeds 10MB", ErrFileTooLarge),
			wantCode:    "IMP002",
			wantMessage: "The file exceeds the import size limit",
		},
		{
			name:        "unknown index",
			err:         fmt.Errorf("%w: 7", ErrUnknownIndex),
			wantCode:    "STG001",
			wantMessage: "No staged record has this index",
		},
		{
			name:        "record locked",
			err:         ErrRecordLocked,
			wantCode:    "STG002",
			wantMessage: "The record is being submitted",
		},
		{
			name:        "submission unavailable wins over wrapped cause",
			err:         fmt.Errorf("%w: %w", ErrSubmissionUnavailable, context.DeadlineExceeded),
			wantCode:    "SUB001",
			wantMessage: "The inventory is unavailable and nothing was saved",
		},
		{
			name:        "session not found",
			err:         ErrSessionNotFound,
			wantCode:    "SES001",
			wantMessage: "Import session not found",
		},
		{
			name:        "too many imports",
			err:         ErrTooManyImports,
			wantCode:    "UPL001",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "connection refused pattern",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: Connection Refused"),
			wantCode:    "SUB002",
			wantMessage: "The inventory could not be reached",
		},
		{
			name:        "deadline pattern",
			err:         context.DeadlineExceeded,
			wantCode:    "UPL003",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrBatchLocked)

	expected := "A submission is in progress for this import (Code: STG004). Wait for the submission to finish"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "sentinel is user facing", err: ErrUnknownField, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
