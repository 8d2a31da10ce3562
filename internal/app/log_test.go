package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Handle(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		session string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "info message",
			session: "20260301T123045Z",
			level:   slog.LevelInfo,
			message: "block mined",
			want:    "2026-03-01T12:30:45Z\tINFO\t20260301T123045Z\tblock mined\n",
		},
		{
			name:    "warn level",
			session: "s-2",
			level:   slog.LevelWarn,
			message: "call failed",
			want:    "2026-03-01T12:30:45Z\tWARN\ts-2\tcall failed\n",
		},
		{
			name:    "with record attrs",
			session: "s-3",
			level:   slog.LevelInfo,
			message: "shares purchased",
			attrs:   []slog.Attr{slog.Uint64("property", 1), slog.String("buyer", "ST1ALICE")},
			want:    "2026-03-01T12:30:45Z\tINFO\ts-3\tshares purchased\tproperty=1\tbuyer=ST1ALICE\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lineHandler{w: &buf, session: tt.session}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{w: &buf, session: "s-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "producer")}).(*lineHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "tick", 0)
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "\ta=1\tcomponent=producer") {
		t.Errorf("expected pre-set attrs in output, got: %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "s-1", &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hello", "k", "v")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "realvora.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ts-1\thello\tk=v") {
		t.Errorf("log file = %q", data)
	}
	if stderr.String() != string(data) {
		t.Errorf("stderr = %q, want same line as file", stderr.String())
	}
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{l: slog.New(&lineHandler{w: &buf, session: "s"})}

	l.Error(errors.New("boom"), "job panicked", "entry", 1)
	if got := buf.String(); !strings.Contains(got, "scheduler: job panicked\tentry=1\terror=boom") {
		t.Errorf("output = %q", got)
	}
}
