package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrConnect,
		ErrCommand,
		ErrParse,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name: "basic error formatting",
			err:  New(ErrConfig, "Invalid configuration", "Check fleetwatch.yaml syntax"),
			expectedParts: []string{
				"✗",
				"Invalid configuration",
				"Check fleetwatch.yaml syntax",
			},
		},
		{
			name: "connection error names the host",
			err:  NewConnectionError("web1", errors.New("connection refused")),
			expectedParts: []string{
				"web1",
				"connection refused",
			},
		},
		{
			name:          "parse error has no suggestion",
			err:           NewParseError("cpu", "empty output"),
			expectedParts: []string{"cpu", "empty output"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()

			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("yaml: line 3: mapping values are not allowed"),
		ErrConfig,
		"Failed to read config file",
		"Check the file is valid YAML or JSON",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "✗"), "first line should start with failure symbol")
	assert.Contains(t, lines[0], "Failed to read config file")
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "no cause",
			err:  NewParseError("memory", "total is zero"),
			want: "Unexpected memory output: total is zero",
		},
		{
			name: "with cause",
			err:  NewConnectionError("db1", errors.New("i/o timeout")),
			want: "Can't connect to 'db1': i/o timeout",
		},
		{
			name: "nested structured cause",
			err:  NewCommandError("db1", "free", NewParseError("memory", "bad")),
			want: "Command failed on 'db1': free: Unexpected memory output: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Summary())
			assert.NotContains(t, tt.err.Summary(), "\n")
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "", Summarize(nil))
	assert.Equal(t, "a b c", Summarize(errors.New("a\n  b\tc")))
	assert.Equal(t, "Unexpected cpu output: x", Summarize(NewParseError("cpu", "x")))
}

func TestErrorsIsAndAs(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := NewCommandError("web1", "df -h", cause)

	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, cause, wrapped.Unwrap())

	var fwErr *Error
	require.True(t, errors.As(fmt.Errorf("cycle: %w", wrapped), &fwErr))
	assert.Equal(t, ErrCommand, fwErr.Code)
	assert.Equal(t, "web1", fwErr.Host)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrConnect))
	assert.True(t, IsCode(fmt.Errorf("wrapped: %w", NewConnectionError("h", nil)), ErrConnect))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOk   bool
	}{
		{name: "ExitError returns code", err: NewExitError(2), wantCode: 2, wantOk: true},
		{name: "wrapped ExitError", err: fmt.Errorf("check: %w", NewExitError(1)), wantCode: 1, wantOk: true},
		{name: "standard error", err: errors.New("boom"), wantOk: false},
		{name: "nil error", err: nil, wantOk: false},
		{name: "structured error", err: New(ErrConfig, "x", ""), wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := GetExitCode(tt.err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
	assert.Equal(t, "exit code 3", NewExitError(3).Error())
}
