package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeValidation, "empty_utterance")); got != CodeValidation {
		t.Errorf("Expected VALIDATION, got %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("Expected empty code for plain error, got %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("Expected empty code for nil, got %q", got)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	inner := Wrap(CodeStorage, "append_user_turn", errors.New("disk full"))
	outer := fmt.Errorf("handling turn: %w", inner)

	if got := CodeOf(outer); got != CodeStorage {
		t.Errorf("Expected code through wrapping, got %q", got)
	}
	if !IsCode(outer, CodeStorage) {
		t.Error("IsCode must see through fmt.Errorf wrapping")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := Wrap(CodeUpstream, "generation_failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Wrapped cause must be reachable via errors.Is")
	}
}

func TestErrorString(t *testing.T) {
	if got := New(CodeNotFound, "transcript_not_found").Error(); got != "NOT_FOUND (transcript_not_found)" {
		t.Errorf("Unexpected error string: %q", got)
	}
	withCause := Wrap(CodeStorage, "upload_failed", errors.New("timeout"))
	if got := withCause.Error(); got != "STORAGE (upload_failed): timeout" {
		t.Errorf("Unexpected error string: %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(CodeValidation, "x"), http.StatusBadRequest},
		{New(CodeNotFound, "x"), http.StatusNotFound},
		{New(CodeUpstream, "x"), http.StatusInternalServerError},
		{New(CodeStorage, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
