package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors the web layer can test with errors.Is.
var (
	// ErrNoDetailRows means a workbook parsed cleanly but produced zero
	// accepted line items, so there is nothing to commit.
	ErrNoDetailRows = errors.New("workbook contains no detail rows")

	// ErrNotFound covers missing documents, items, and photos.
	ErrNotFound = errors.New("not found")
)

// ConflictError reports duplicate (category, evidence) keys inside one
// import batch. Committing such a batch would silently collapse rows, so
// the whole import is rejected with the offending source rows listed.
type ConflictError struct {
	// Conflicts maps "categoryKey/evidenceNo" to the 1-based source rows
	// competing for that key.
	Conflicts map[string][]int
}

func (e *ConflictError) Error() string {
	keys := make([]string, 0, len(e.Conflicts))
	for k := range e.Conflicts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s (rows %v)", k, e.Conflicts[k]))
	}
	return "duplicate evidence keys in batch: " + strings.Join(parts, "; ")
}

// ValidationError reports a client-fixable problem with a request
// payload; the web layer answers these with 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// CommitError marks a failure in the database commit phase, after the
// workbook itself parsed and validated. The web layer reports these as
// server errors rather than workbook problems.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return "commit import: " + e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// UserMessage is the client-facing rendition of an error: what happened,
// what to do, and a stable code to quote when asking for help.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive, substring
// match) to user messages. First match wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	// Workbook import (IMP001-IMP099)
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "Could not find the item table header in the workbook",
			Action:  "Check that the sheet has a header row with item name and quantity columns",
			Code:    "IMP001",
		},
	},
	{
		pattern: "no detail rows",
		msg: UserMessage{
			Message: "The workbook has no importable line items",
			Action:  "Check that item rows appear below a numbered category heading",
			Code:    "IMP002",
		},
	},
	{
		pattern: "duplicate evidence keys",
		msg: UserMessage{
			Message: "Two rows in the workbook claim the same evidence number",
			Action:  "Review the listed rows and remove the duplicates, then re-import",
			Code:    "IMP003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "The header row is missing a required column",
			Action:  "The item table needs at least an item name column and a quantity column",
			Code:    "IMP005",
		},
	},
	{
		pattern: "unreadable workbook",
		msg: UserMessage{
			Message: "The file is not a readable xlsx workbook",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "IMP004",
		},
	},

	// Export (EXP001-EXP099)
	{
		pattern: "export template",
		msg: UserMessage{
			Message: "The export template is missing or malformed",
			Action:  "Contact the administrator; the server-side template needs attention",
			Code:    "EXP001",
		},
	},
	{
		pattern: "fetch photo",
		msg: UserMessage{
			Message: "A stored evidence photo could not be retrieved",
			Action:  "Re-upload the photo for the listed item, then export again",
			Code:    "EXP002",
		},
	},

	// Photos (PHO001-PHO099)
	{
		pattern: "unknown photo kind",
		msg: UserMessage{
			Message: "Photo kind must be inbound or install",
			Action:  "Use kind \"inbound\" or \"install\" in the upload URL",
			Code:    "PHO001",
		},
	},
	{
		pattern: "slot out of range",
		msg: UserMessage{
			Message: "The photo slot number is outside the allowed range",
			Action:  "Inbound evidence has 1 slot; install evidence has slots 1-4",
			Code:    "PHO002",
		},
	},

	// Request validation (VAL001-VAL099)
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "A required field is missing",
			Action:  "Fill in the named field and retry",
			Code:    "VAL001",
		},
	},
	{
		pattern: "must be positive",
		msg: UserMessage{
			Message: "A numeric field has an invalid value",
			Action:  "Quantities must be positive; prices must not be negative",
			Code:    "VAL002",
		},
	},
	{
		pattern: "must be non-negative",
		msg: UserMessage{
			Message: "A numeric field has an invalid value",
			Action:  "Quantities must be positive; prices must not be negative",
			Code:    "VAL002",
		},
	},
	{
		pattern: "must look like",
		msg: UserMessage{
			Message: "A field does not match its expected format",
			Action:  "Use the format shown in the error detail",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body is not valid JSON",
			Action:  "Check the payload syntax and field types",
			Code:    "VAL004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was attached to the upload",
			Action:  "Attach the file in the expected multipart field",
			Code:    "VAL005",
		},
	},

	// Database (DB001-DB099)
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check for a duplicate entry and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "The referenced record does not exist",
			Action:  "Create the document or item first",
			Code:    "DB002",
		},
	},
	{
		pattern: "no rows in result set",
		msg: UserMessage{
			Message: "The requested record was not found",
			Action:  "Check the identifier and try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "The requested record was not found",
			Action:  "Check the identifier and try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try again, or with a smaller file",
			Code:    "DB005",
		},
	},

	// Rate limiting (RATE001)
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is the ERR000 fallback; the original error stays in the
// server logs for correlation.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to its user-facing message. The
// first matching pattern wins; unmatched errors fall back to ERR000.
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
