package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "github not found", err: &NotFoundError{URL: "https://api.github.com/repos/docker/x"}, want: true},
		{name: "wrapped github not found", err: fmt.Errorf("lookup: %w", &NotFoundError{URL: "u"}), want: true},
		{name: "app not found", err: NewNotFoundError("run abc"), want: true},
		{name: "http error", err: &HTTPError{URL: "u", StatusCode: 500}, want: false},
		{name: "bad request", err: NewBadRequestError("nope"), want: false},
		{name: "plain", err: fmt.Errorf("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsHTTPError(t *testing.T) {
	wrapped := fmt.Errorf("list teams: %w", &HTTPError{URL: "u", StatusCode: 502, Body: "bad gateway"})

	httpErr, ok := IsHTTPError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 502, httpErr.StatusCode)
	assert.Equal(t, "bad gateway", httpErr.Body)

	_, ok = IsHTTPError(&NotFoundError{URL: "u"})
	assert.False(t, ok)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&HTTPError{StatusCode: 429}))
	assert.True(t, IsRateLimited(fmt.Errorf("list: %w", &HTTPError{StatusCode: 403, Body: `{"message":"API rate limit exceeded for user"}`})))
	assert.False(t, IsRateLimited(&HTTPError{StatusCode: 403, Body: "Must have admin rights"}))
	assert.False(t, IsRateLimited(&NotFoundError{URL: "u"}))
	assert.False(t, IsRateLimited(NewBadRequestError("limit")))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "https://api.github.com/users/x not found", (&NotFoundError{URL: "https://api.github.com/users/x"}).Error())
	assert.Equal(t, "GET u: 500 Server Error", (&HTTPError{URL: "u", StatusCode: 500, Body: "Server Error"}).Error())
	assert.Equal(t, "GET u: 503", (&HTTPError{URL: "u", StatusCode: 503}).Error())
	assert.Equal(t, "INTERNAL_ERROR: query failed (disk full)", NewInternalError("query failed", fmt.Errorf("disk full")).Error())
}
