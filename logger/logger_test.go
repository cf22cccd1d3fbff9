package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "test", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.Info("hello", Fields("seq", 3))

	m := decodeLine(t, buf)
	if m["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", m["message"])
	}
	if m[FieldService] != "test" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
	if m["seq"] != float64(3) {
		t.Errorf("expected seq=3, got %v", m["seq"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")
	l.Debug("d")
	l.Info("i")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("w")
	if !strings.Contains(buf.String(), `"w"`) {
		t.Errorf("expected warn message, got %q", buf.String())
	}
	if l.Enabled(zerolog.InfoLevel) {
		t.Error("info should not be enabled at warn level")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := newJSONLogger(t, "invalid-level")
	l.Info("still logged")
	if buf.Len() == 0 {
		t.Error("expected invalid level to fall back to info")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped")
	if l.Enabled(zerolog.ErrorLevel) {
		t.Error("nop logger should not be enabled")
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	cl := l.WithComponent("parmap")
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
	cl.Info("x")
	if m := decodeLine(t, buf); m[FieldComponent] != "parmap" {
		t.Errorf("expected component=parmap, got %v", m[FieldComponent])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l := Nop()
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger without an active span")
	}
}

func TestWithContext_Span(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.WithContext(ctx).Info("traced")
	m := decodeLine(t, buf)
	if m[FieldTraceID] != sc.TraceID().String() {
		t.Errorf("expected trace_id %s, got %v", sc.TraceID(), m[FieldTraceID])
	}
	if m[FieldSpanID] != sc.SpanID().String() {
		t.Errorf("expected span_id %s, got %v", sc.SpanID(), m[FieldSpanID])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithFields(map[string]any{FieldPipelineID: "p1"}).WithError(errors.New("boom")).Error("failed")

	m := decodeLine(t, buf)
	if m[FieldPipelineID] != "p1" {
		t.Errorf("expected pipeline_id=p1, got %v", m[FieldPipelineID])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
	if m["level"] != "error" {
		t.Errorf("expected level=error, got %v", m["level"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "info", Format: FormatConsole, NoColor: true}
	NewWithWriter(cfg, "", &buf).Warn("careful", Fields("worker", 2))

	out := buf.String()
	if !strings.Contains(out, "[WRN]") {
		t.Errorf("expected [WRN] tag, got %q", out)
	}
	if !strings.Contains(out, "worker:") {
		t.Errorf("expected field name with colon, got %q", out)
	}
}

func TestInit(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	Init(Config{Level: "error", Format: FormatJSON})
	if GetGlobalLogger().GetLogger().GetLevel() != zerolog.ErrorLevel {
		t.Error("expected global logger at error level")
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	l, buf := newJSONLogger(t, "debug")
	SetGlobalLogger(l)
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	if n := strings.Count(buf.String(), "\n"); n != 4 {
		t.Errorf("expected 4 lines, got %d", n)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg = Config{Level: "debug", Format: FormatJSON, Output: "stdout"}
	cfg.ApplyDefaults()
	if cfg.Level != "debug" || cfg.Format != FormatJSON || cfg.Output != "stdout" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"bad level", Config{Level: "loud", Format: FormatJSON, Output: "stderr"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stderr"}, true},
		{"bad output", Config{Level: "info", Format: FormatJSON, Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := Nop()
	Register("custom", l)
	defer Unregister("custom")

	if Get("custom") != l {
		t.Error("expected registered logger")
	}
}

func TestGetUnregistered(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	l, buf := newJSONLogger(t, "info")
	SetGlobalLogger(l)
	Get("unknown").Info("x")
	if m := decodeLine(t, buf); m[FieldComponent] != "unknown" {
		t.Errorf("expected component=unknown, got %v", m[FieldComponent])
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %d: %v", len(m), m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("digest", errors.New("denied"))
	if m[FieldOperation] != "digest" || m[FieldError] != "denied" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("digest", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}

func TestMergeWithError(t *testing.T) {
	m := MergeWithError(nil, errors.New("x"))
	if m[FieldError] != "x" {
		t.Errorf("expected error field, got %v", m)
	}
	m = MergeWithError(map[string]any{"k": "v"}, errors.New("y"))
	if m["k"] != "v" || m[FieldError] != "y" {
		t.Errorf("expected merged map, got %v", m)
	}
}
