package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	h := http.NewServeMux()
	srv := New(":9000", h)
	assert.Equal(t, ":9000", srv.Addr)
	assert.Same(t, h, srv.Handler)
	assert.NotZero(t, srv.ReadHeaderTimeout)
	assert.Greater(t, srv.WriteTimeout, srv.ReadTimeout)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8000", Addr(""))
	assert.Equal(t, ":8080", Addr("8080"))
	assert.Equal(t, ":8080", Addr(":8080"))
}
