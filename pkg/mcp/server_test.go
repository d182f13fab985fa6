package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/trends"
)

func TestToolOptionsFromSkillSchema(t *testing.T) {
	skill := trends.NewFetchSkill(nil)
	tool := mcp.NewTool(skill.Descriptor().SkillID, toolOptions(skill)...)

	if tool.Name != "skill_fetch_trends" {
		t.Fatalf("tool name = %q", tool.Name)
	}

	props := tool.InputSchema.Properties
	for _, name := range []string{"source", "time_window", "velocity_threshold", "max_results", "include_sentiment"} {
		if _, ok := props[name]; !ok {
			t.Errorf("parameter %q missing from tool schema", name)
		}
	}

	foundRequired := false
	for _, name := range tool.InputSchema.Required {
		if name == "source" {
			foundRequired = true
		}
	}
	if !foundRequired {
		t.Errorf("source must be required, got %v", tool.InputSchema.Required)
	}
}

func TestNewServerRegistersAllSkills(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(trends.NewFetchSkill(nil))

	s := NewServer("agentic", "test", registry)
	if s == nil || s.mcpServer == nil {
		t.Fatalf("server not constructed")
	}
}
