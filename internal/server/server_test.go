package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"shelf/internal/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":               ":8080",
		"8080":           ":8080",
		":9090":          ":9090",
		"127.0.0.1:8081": "127.0.0.1:8081",
		" 7000 ":         ":7000",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Errorf("normalizeAddr(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	srv := newHTTPServer(":0", http.NotFoundHandler(), config.HTTPConfig{WriteTimeout: 3 * time.Second})
	if srv.WriteTimeout != 3*time.Second {
		t.Fatalf("write timeout=%v", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout != defaultReadHeaderTimeout || srv.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("defaults not applied: %+v", srv)
	}
	if srv.MaxHeaderBytes != maxHeaderBytes {
		t.Fatalf("max header bytes=%d", srv.MaxHeaderBytes)
	}
}

func TestShutdown_BeforeRun(t *testing.T) {
	var s Server
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
