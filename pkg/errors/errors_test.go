package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSentinel = errors.New("node 7 does not exist")

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeInvalidRecord, "line %d: unknown record %q", 3, "x"),
			want: `INVALID_RECORD: line 3: unknown record "x"`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeUnknownNode, errSentinel, "line %d", 12),
			want: "UNKNOWN_NODE: line 12: node 7 does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeUnknownNode, errSentinel, "line 4")
	if !errors.Is(err, errSentinel) {
		t.Error("errors.Is lost the wrapped sentinel")
	}
	if errors.Unwrap(err) != errSentinel {
		t.Errorf("Unwrap() = %v", errors.Unwrap(err))
	}

	// A coded error wrapped by fmt.Errorf is still found.
	outer := fmt.Errorf("load queries.txt: %w", err)
	if !Is(outer, ErrCodeUnknownNode) {
		t.Error("Is() did not see through fmt.Errorf")
	}
}

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		is   bool
		want Code
	}{
		{"same code", New(ErrCodeInvalidLabel, "x"), ErrCodeInvalidLabel, true, ErrCodeInvalidLabel},
		{"other code", New(ErrCodeInvalidLabel, "x"), ErrCodeInvalidNodeID, false, ErrCodeInvalidLabel},
		{"outermost code wins", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork, true, ErrCodeNetwork},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false, ""},
		{"nil", nil, ErrCodeInvalidInput, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.is {
				t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.is)
			}
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrCodeReportNotFound, "report abc not found"), "report abc not found"},
		{Wrap(ErrCodeNetwork, errors.New("dial tcp: refused"), "redis get"), "redis get"},
		{errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid record", New(ErrCodeInvalidRecord, "line 3"), http.StatusBadRequest},
		{"unknown node", Wrap(ErrCodeUnknownNode, errSentinel, "line 4"), http.StatusBadRequest},
		{"bad format", New(ErrCodeInvalidFormat, "gif"), http.StatusBadRequest},
		{"report not found", New(ErrCodeReportNotFound, "gone"), http.StatusNotFound},
		{"timeout", New(ErrCodeTimeout, "slow"), http.StatusGatewayTimeout},
		{"budget", New(ErrCodeBudgetExceeded, "too many visits"), http.StatusUnprocessableEntity},
		{"network", New(ErrCodeNetwork, "redis down"), http.StatusBadGateway},
		{"unsupported", New(ErrCodeUnsupported, "no rsvg-convert"), http.StatusNotImplemented},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
