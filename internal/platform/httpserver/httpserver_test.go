package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	h := http.NewServeMux()
	srv := New(":9999", h)

	assert.Equal(t, ":9999", srv.Addr)
	assert.Equal(t, h, srv.Handler)
	assert.Equal(t, defaultReadHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
	assert.Nil(t, srv.ErrorLog)
}

func TestOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	srv := New(":0", http.NewServeMux(), WithWriteTimeout(time.Minute), WithErrorLogger(logger))

	assert.Equal(t, time.Minute, srv.WriteTimeout)
	require.NotNil(t, srv.ErrorLog)
	srv.ErrorLog.Print("tls handshake error")
	assert.Contains(t, buf.String(), "tls handshake error")
	assert.Contains(t, buf.String(), "level=ERROR")
}
