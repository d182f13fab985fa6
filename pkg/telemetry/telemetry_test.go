package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConfigureSlogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record emitted at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestConfigureSlogJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	logger.Info("hello", slog.String("k", "v"))
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}
}

func TestTraceHandlerWithoutSpanContext(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "text")
	logger.InfoContext(context.Background(), "no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace_id stamped without a span: %q", buf.String())
	}
}

func TestNewPipelineMetrics(t *testing.T) {
	m, err := NewPipelineMetrics()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	ctx := context.Background()
	// Instruments on the no-op global meter must accept records quietly.
	m.RecordSkillExecution(ctx, "skill_fetch_trends", "success", 12.5)
	m.RecordDecision(ctx, "escalate", true)
	m.RecordGateNotification(ctx, "USDC")
	m.RecordPublished(ctx, "moltbook")
}

func TestInitWithConfigRejectsUnknownExporter(t *testing.T) {
	if _, err := InitWithConfig("agentic", "test", Config{Exporter: "bogus"}); err == nil {
		t.Fatalf("expected unknown exporter error")
	}
}
