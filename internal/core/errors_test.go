package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "undetected header",
			err:      errors.New("no header row detected in first 40 rows"),
			wantCode: "IMP001",
		},
		{
			name:     "empty workbook",
			err:      ErrNoDetailRows,
			wantCode: "IMP002",
		},
		{
			name:     "batch conflict",
			err:      &ConflictError{Conflicts: map[string][]int{"ppe/2": {6, 12}}},
			wantCode: "IMP003",
		},
		{
			name:     "unreadable file",
			err:      errors.New("unreadable workbook: zip: not a valid zip file"),
			wantCode: "IMP004",
		},
		{
			name:     "missing column",
			err:      errors.New("header row 4 is missing required column(s): quantity"),
			wantCode: "IMP005",
		},
		{
			name:     "missing template",
			err:      fmt.Errorf("export template: open /etc/tpl.xlsx: no such file or directory"),
			wantCode: "EXP001",
		},
		{
			name:     "unfetchable photo",
			err:      errors.New("fetch photo legacy/a.jpg of item 2/1: status 404"),
			wantCode: "EXP002",
		},
		{
			name:     "bad photo kind",
			err:      errors.New(`unknown photo kind "selfie"`),
			wantCode: "PHO001",
		},
		{
			name:     "bad slot",
			err:      errors.New("slot out of range: inbound slot 2 (max 1)"),
			wantCode: "PHO002",
		},
		{
			name:     "unique violation",
			err:      errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "missing row",
			err:      errors.New("no rows in result set"),
			wantCode: "DB003",
		},
		{
			name:     "not found sentinel",
			err:      fmt.Errorf("document x: %w", ErrNotFound),
			wantCode: "DB003",
		},
		{
			name:     "unreachable database",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "rate limited",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error falls back",
			err:      errors.New("something novel"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			assert.Equal(t, tt.wantCode, msg.Code)
			if tt.wantCode != "" {
				assert.NotEmpty(t, msg.Message)
			}
		})
	}
}

func TestConflictErrorMessageIsStable(t *testing.T) {
	err := &ConflictError{Conflicts: map[string][]int{
		"safety_facility/1": {9, 14},
		"ppe/2":             {6, 12},
	}}

	// Keys are sorted so the message does not depend on map order.
	assert.Equal(t,
		"duplicate evidence keys in batch: ppe/2 (rows [6 12]); safety_facility/1 (rows [9 14])",
		err.Error())
}
