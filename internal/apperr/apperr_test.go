package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(Forbidden, "nope")); got != Forbidden {
		t.Errorf("KindOf = %v, want Forbidden", got)
	}

	// Wrapped taxonomy errors keep their kind through fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", New(NotFound, "missing"))
	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf(wrapped) = %v, want NotFound", got)
	}

	// Anything outside the taxonomy collapses to Internal.
	if got := KindOf(errors.New("driver: bad connection")); got != Internal {
		t.Errorf("KindOf(plain) = %v, want Internal", got)
	}
}

func TestClientMessageHidesInternalDetail(t *testing.T) {
	err := Wrap(Internal, "failed to store message", errors.New("pq: connection reset"))
	if got := ClientMessage(err); got != "internal server error" {
		t.Errorf("ClientMessage = %q, want generic", got)
	}

	if got := ClientMessage(New(InvalidInput, "chatId must be a positive integer")); got != "chatId must be a positive integer" {
		t.Errorf("ClientMessage = %q", got)
	}

	if got := ClientMessage(errors.New("raw failure")); got != "internal server error" {
		t.Errorf("ClientMessage(plain) = %q, want generic", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("row not found")
	err := Wrap(NotFound, "chat 5 not found", inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped error lost its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{Forbidden, http.StatusForbidden},
		{InvalidInput, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
		{Internal, http.StatusInternalServerError},
		{Kind(0), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.kind); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}
