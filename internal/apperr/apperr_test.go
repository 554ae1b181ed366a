package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(Forbidden, "no access")
	assert.Equal(t, Forbidden, KindOf(err))
	assert.True(t, Is(err, Forbidden))
	assert.False(t, Is(err, NotFound))

	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestKindOfWrappedChain(t *testing.T) {
	inner := New(Conflict, "duplicate")
	outer := fmt.Errorf("saving invite: %w", inner)

	assert.True(t, Is(outer, Conflict))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Persistence, cause, "failed to save room")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to save room")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(Validation, "bad input"), http.StatusBadRequest},
		{New(Unauthorized, "no token"), http.StatusUnauthorized},
		{New(Forbidden, "not yours"), http.StatusForbidden},
		{New(NotFound, "gone"), http.StatusNotFound},
		{New(Conflict, "duplicate"), http.StatusConflict},
		{New(Persistence, "db down"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}
