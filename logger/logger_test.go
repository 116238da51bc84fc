package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return New(Config{Level: level, Format: "json", Writer: buf})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", line, err)
	}
	return m
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	l.Info("fetched", Fields(FieldHref, "/people/1", FieldStatus, 200))

	m := decodeLine(t, &buf)
	if m["message"] != "fetched" {
		t.Errorf("expected message 'fetched', got %v", m["message"])
	}
	if m[FieldHref] != "/people/1" {
		t.Errorf("expected href /people/1, got %v", m[FieldHref])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "loud")
	l.Debug("hidden")
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") || strings.Contains(buf.String(), "hidden") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug").WithComponent("proxy")
	if l.Component() != "proxy" {
		t.Errorf("expected component 'proxy', got %q", l.Component())
	}
	l.Debug("x")
	m := decodeLine(t, &buf)
	if m[FieldComponent] != "proxy" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("x")
	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", m[FieldRequestID])
	}
}

func TestWithContext_NoRequestIDReturnsSame(t *testing.T) {
	l := Nop()
	if l.WithContext(context.Background()) != l {
		t.Error("expected same logger when context has no request id")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d: %v", len(m), m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("GET", "/x", 200, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
	if m[FieldStatus] != 200 {
		t.Errorf("expected status 200, got %v", m[FieldStatus])
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRegistry_GetFallsBackToGlobal(t *testing.T) {
	SetGlobalLogger(Nop())
	defer SetGlobalLogger(nil)

	l := Get("unregistered")
	if l.Component() != "unregistered" {
		t.Errorf("expected component tag, got %q", l.Component())
	}

	custom := Nop().WithComponent("custom")
	Register("rest", custom)
	if Get("rest") != custom {
		t.Error("expected registered logger")
	}
}
