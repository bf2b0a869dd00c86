// Package core provides the bulk import and staging pipeline.
//
// # Error Codes Reference
//
// Errors returned to users carry a code for support reference.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Malformed file: The file could not be read as delimited text
//	         Action: Check quoting and save the file as UTF-8 CSV
//	         Match: ErrMalformedInput
//
//	IMP002 - File too large: The file exceeds the import size limit
//	         Action: Split the file into smaller files
//	         Match: ErrFileTooLarge
//
// # Staging Errors (STG001-STG099)
//
//	STG001 - Unknown record: No staged record has this index
//	         Action: Reload the record list
//	         Match: ErrUnknownIndex
//
//	STG002 - Record locked: The record is being submitted
//	         Action: Wait for the submission to finish
//	         Match: ErrRecordLocked
//
//	STG003 - Unknown field: The field is not part of the product schema
//	         Action: Use one of the fields listed by the schema endpoint
//	         Match: ErrUnknownField
//
//	STG004 - Batch locked: A submission is in progress for this import
//	         Action: Wait for the submission to finish
//	         Match: ErrBatchLocked
//
// # Submission Errors (SUB001-SUB099)
//
//	SUB001 - Inventory unavailable: Nothing was saved
//	         Action: Records are still staged. Try submitting again
//	         Match: ErrSubmissionUnavailable
//
//	SUB002 - Connection refused: The inventory could not be reached
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Import not found: The import session does not exist or expired
//	         Action: Upload the file again
//	         Match: ErrSessionNotFound
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyImports
//
//	UPL002 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL003 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the technical error.
//
// # Matching
//
// Sentinel errors are matched first with errors.Is, in table order. Other
// errors are matched case-insensitively with strings.Contains; the first
// matching pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked with errors.Is, in order, before any string pattern.
var sentinelMessages = []sentinelMessage{
	{ErrMalformedInput, UserMessage{
		Message: "The file could not be read as delimited text",
		Action:  "Check quoting and save the file as UTF-8 CSV",
		Code:    "IMP001",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "The file exceeds the import size limit",
		Action:  "Split the file into smaller files",
		Code:    "IMP002",
	}},
	{ErrUnknownIndex, UserMessage{
		Message: "No staged record has this index",
		Action:  "Reload the record list",
		Code:    "STG001",
	}},
	{ErrRecordLocked, UserMessage{
		Message: "The record is being submitted",
		Action:  "Wait for the submission to finish",
		Code:    "STG002",
	}},
	{ErrUnknownField, UserMessage{
		Message: "The field is not part of the product schema",
		Action:  "Use one of the fields listed by the schema endpoint",
		Code:    "STG003",
	}},
	{ErrBatchLocked, UserMessage{
		Message: "A submission is in progress for this import",
		Action:  "Wait for the submission to finish",
		Code:    "STG004",
	}},
	{ErrSubmissionUnavailable, UserMessage{
		Message: "The inventory is unavailable and nothing was saved",
		Action:  "Records are still staged. Try submitting again",
		Code:    "SUB001",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "Import session not found",
		Action:  "The import may have expired. Please upload the file again",
		Code:    "SES001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The inventory could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "SUB002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
