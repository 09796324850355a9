// Package core provides the validation and normalization engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Every entry in a file's error log carries one of these codes, so operators
// can look up what happened and what to fix in the source spreadsheet.
//
// # File Errors (LOAD001-LOAD099)
//
//	LOAD001 - Unreadable file: The spreadsheet could not be opened or parsed
//	          Action: Re-export the file as .xlsx or UTF-8 .csv
//	          Patterns: "load error"
//
//	LOAD002 - Unsupported file: The file type is not supported
//	          Action: Use .xlsx, .xlsm or .csv files
//	          Patterns: "unsupported file"
//
//	LOAD003 - Empty file: The spreadsheet has no data rows
//	          Action: Check that the correct sheet was exported
//	          Patterns: "no data rows"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Schema mismatch: Required columns are missing or empty
//	         Action: Compare the headers against the expected column list
//	         Patterns: "schema mismatch"
//
// # Row Errors (COE001, AGG001-AGG004)
//
//	COE001 - Conversion warning: Some values could not be converted
//	         Action: Check the listed column for typos or stray text
//
//	AGG001 - Inconsistent bundle: Rows of one bundle disagree
//	         Action: Fix the listed bundle/column pairs in the source file
//	         Patterns: "inconsistent bundle"
//
//	AGG002 - Structural error: Aggregation input lacks required columns
//	         Action: Check the schema document against the aggregation columns
//	         Patterns: "structural error"
//
//	AGG003 - Rows without bundle: Some rows have no bundle id and were skipped
//	         Action: Fill in the bundle id for the listed lines
//
//	AGG004 - Weight overflow: A bundle weight sum is out of range
//	         Action: Check the weight column of the listed bundles for unit mistakes
//
// # Reference Data Warnings (GRD001, FIN001, LOC001, MAT001, CAT001, AUG001)
//
//	GRD001 - Unknown grade: The grade is not in the reference list
//	FIN001 - Unknown finish: The finish code is not in the finish table
//	LOC001 - Unknown location: The warehouse code has no address mapping
//	MAT001 - Unknown material: No material family found for the grade
//	CAT001 - Unknown category: No category for the form/material pair
//	AUG001 - Derived field: A computed field could not be derived
//
// # Run Errors (CFG001, EXT001-EXT002, PUB001, STG001, RUN001-RUN002)
//
//	CFG001 - Configuration: A required configuration key is absent
//	         Patterns: "configuration error"
//
//	EXT001 - Reference service unavailable
//	         Patterns: "external service"
//
//	EXT002 - Connection refused
//	         Patterns: "connection refused"
//
//	PUB001 - Distribution failed: The processed table could not be published
//	         Patterns: "publish"
//
//	STG001 - Staging failed: The file's stage artifact could not be stored or read
//	         Action: Check the staging directory and rerun from the failed stage
//
//	RUN001 - Run in progress: Another pipeline run is active
//	         Patterns: "run in progress"
//
//	RUN002 - Not found: The requested report or artifact does not exist
//	         Patterns: "not found"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type issueInfo struct {
	code     string
	severity Severity
	msg      UserMessage
}

// issueInfos registers the code, severity and operator guidance for every issue kind.
var issueInfos = map[IssueKind]issueInfo{
	IssueLoad: {"LOAD001", SeverityError, UserMessage{
		Message: "The spreadsheet could not be opened or parsed",
		Action:  "Re-export the file as .xlsx or UTF-8 .csv",
	}},
	IssueSchemaMismatch: {"SCH001", SeverityError, UserMessage{
		Message: "Required columns are missing or empty",
		Action:  "Compare the headers against the expected column list",
	}},
	IssueCoercion: {"COE001", SeverityWarning, UserMessage{
		Message: "Some values could not be converted",
		Action:  "Check the listed column for typos or stray text",
	}},
	IssueAggregation: {"AGG001", SeverityError, UserMessage{
		Message: "Rows of one bundle disagree",
		Action:  "Fix the listed bundle/column pairs in the source file",
	}},
	IssueStructural: {"AGG002", SeverityError, UserMessage{
		Message: "Aggregation input lacks required columns",
		Action:  "Check the schema document against the aggregation columns",
	}},
	IssueUnkeyedRows: {"AGG003", SeverityWarning, UserMessage{
		Message: "Some rows have no bundle id and were skipped",
		Action:  "Fill in the bundle id for the listed lines",
	}},
	IssueWeightOverflow: {"AGG004", SeverityWarning, UserMessage{
		Message: "A bundle weight sum is out of range",
		Action:  "Check the weight column of the listed bundles for unit mistakes",
	}},
	IssueUnresolvedGrade: {"GRD001", SeverityWarning, UserMessage{
		Message: "The grade is not in the reference list",
		Action:  "Correct the grade or add it to the grade table",
	}},
	IssueUnresolvedFinish: {"FIN001", SeverityWarning, UserMessage{
		Message: "The finish code is not in the finish table",
		Action:  "Correct the code or extend the finish document",
	}},
	IssueUnresolvedLocation: {"LOC001", SeverityWarning, UserMessage{
		Message: "The warehouse code has no address mapping",
		Action:  "Add the code to template_data.warehouse_address",
	}},
	IssueUnresolvedMaterial: {"MAT001", SeverityWarning, UserMessage{
		Message: "No material family found for the grade",
		Action:  "Extend the material table",
	}},
	IssueUnresolvedCategory: {"CAT001", SeverityWarning, UserMessage{
		Message: "No category for the form/material pair",
		Action:  "Extend the category matrix",
	}},
	IssueDerivedField: {"AUG001", SeverityWarning, UserMessage{
		Message: "A computed field could not be derived",
		Action:  "Check the input column the field depends on",
	}},
	IssueConfiguration: {"CFG001", SeverityWarning, UserMessage{
		Message: "A required configuration key is absent",
		Action:  "Add the key to the run document",
	}},
	IssueExternalService: {"EXT001", SeverityError, UserMessage{
		Message: "A reference service was unavailable",
		Action:  "Check database connectivity and rerun the transform stage",
	}},
	IssueDistribution: {"PUB001", SeverityError, UserMessage{
		Message: "The processed table could not be published",
		Action:  "Check the publish directory and rerun the load stage",
	}},
	IssueArtifact: {"STG001", SeverityError, UserMessage{
		Message: "The file's stage artifact could not be stored or read",
		Action:  "Check the staging directory and rerun from the failed stage",
	}},
}

func issueInfoFor(kind IssueKind) issueInfo {
	if info, ok := issueInfos[kind]; ok {
		return info
	}
	return issueInfo{code: defaultMessage.Code, severity: SeverityError, msg: defaultMessage}
}

// Describe returns the operator guidance for an issue code such as "GRD001".
func Describe(code string) UserMessage {
	for _, info := range issueInfos {
		if info.code == code {
			msg := info.msg
			msg.Code = info.code
			return msg
		}
	}
	return defaultMessage
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (LOAD001-LOAD003)
	// =========================================================================
	{
		pattern: "unsupported file",
		msg: UserMessage{
			Message: "The file type is not supported",
			Action:  "Use .xlsx, .xlsm or .csv files",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The spreadsheet has no data rows",
			Action:  "Check that the correct sheet was exported",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "load error",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened or parsed",
			Action:  "Re-export the file as .xlsx or UTF-8 .csv",
			Code:    "LOAD001",
		},
	},

	// =========================================================================
	// Validation Errors (SCH001, AGG001-AGG002)
	// =========================================================================
	{
		pattern: "schema mismatch",
		msg: UserMessage{
			Message: "Required columns are missing or empty",
			Action:  "Compare the headers against the expected column list",
			Code:    "SCH001",
		},
	},
	{
		pattern: "inconsistent bundle",
		msg: UserMessage{
			Message: "Rows of one bundle disagree",
			Action:  "Fix the listed bundle/column pairs in the source file",
			Code:    "AGG001",
		},
	},
	{
		pattern: "structural error",
		msg: UserMessage{
			Message: "Aggregation input lacks required columns",
			Action:  "Check the schema document against the aggregation columns",
			Code:    "AGG002",
		},
	},

	// =========================================================================
	// Run Errors (CFG001, EXT001-EXT002, PUB001, RUN001-RUN002)
	// =========================================================================
	{
		pattern: "configuration error",
		msg: UserMessage{
			Message: "A required configuration key is absent",
			Action:  "Add the key to the run document",
			Code:    "CFG001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the reference database",
			Action:  "Please try again in a few moments",
			Code:    "EXT002",
		},
	},
	{
		pattern: "external service",
		msg: UserMessage{
			Message: "A reference service was unavailable",
			Action:  "Check database connectivity and rerun the transform stage",
			Code:    "EXT001",
		},
	},
	{
		pattern: "publish",
		msg: UserMessage{
			Message: "The processed table could not be published",
			Action:  "Check the publish directory and rerun the load stage",
			Code:    "PUB001",
		},
	},
	{
		pattern: "run in progress",
		msg: UserMessage{
			Message: "Another pipeline run is active",
			Action:  "Wait for the current run to finish",
			Code:    "RUN001",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "The requested report or artifact does not exist",
			Action:  "List the available reports and pick an existing id",
			Code:    "RUN002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
