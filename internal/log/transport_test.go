package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransportLogsLevelByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	tests := []struct {
		path  string
		level string
	}{
		{"/ok", "level=INFO"},
		{"/missing", "level=WARN"},
		{"/boom", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
			client := &http.Client{Transport: NewTransport(nil, logger)}

			req, _ := http.NewRequest(http.MethodGet, srv.URL+tt.path, nil)
			req.Header.Set(RequestIDHeader, "req-1")
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			out := buf.String()
			if !strings.Contains(out, "HTTP request completed") {
				t.Fatalf("missing completion line: %s", out)
			}
			if !strings.Contains(out, tt.level) {
				t.Errorf("expected %s in %s", tt.level, out)
			}
			if !strings.Contains(out, "request_id=req-1") {
				t.Errorf("request id not logged: %s", out)
			}
			if !strings.Contains(out, "component=http") {
				t.Errorf("component not logged: %s", out)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelWarn, false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
