package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{PreconditionFailed("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{Transport("x", nil), http.StatusBadGateway},
		{RateLimited("x", nil), http.StatusTooManyRequests},
		{Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected status %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestGetKindFollowsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("resolve event: %w", NotFound("event not found"))

	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected wrapped error to report KindNotFound, got %d", GetKind(wrapped))
	}
	if Is(fmt.Errorf("plain"), KindNotFound) {
		t.Fatal("expected plain error to report KindUnknown")
	}
}
