package skills

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `skill_id: skill_fetch_trends
version: 0.1.0
name: Trend Fetcher
category: Perception
description: Fetches trending topics from social platforms.
parameters:
  source:
    type: string
    required: true
    enum: [moltbook, twitter, instagram, all]
  time_window:
    type: string
    default: 1h
    enum: [1h, 6h, 24h, 7d]
  velocity_threshold:
    type: integer
    default: 100
  max_results:
    type: integer
    default: 50
`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(skillDir, "skill.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestFile(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "skill_fetch_trends", sampleManifest)

	manifest, err := LoadManifestFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if manifest.SkillID != "skill_fetch_trends" {
		t.Errorf("unexpected skill_id %q", manifest.SkillID)
	}
	if manifest.Descriptor().Version != "0.1.0" {
		t.Errorf("unexpected version %q", manifest.Descriptor().Version)
	}
	spec, ok := manifest.Parameters["source"]
	if !ok || !spec.Required {
		t.Errorf("expected required source parameter, got %+v", spec)
	}
	if len(spec.Enum) != 4 {
		t.Errorf("expected 4 allowed sources, got %d", len(spec.Enum))
	}
}

func TestLoadManifestDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "skill_fetch_trends", sampleManifest)
	// Directory without a manifest is skipped, not an error.
	if err := os.MkdirAll(filepath.Join(dir, "notes"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	manifests, err := LoadManifestDir(dir)
	if err != nil {
		t.Fatalf("load dir failed: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(manifests))
	}
}

func TestManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing skill_id", "version: 0.1.0\n"},
		{"bad skill_id", "skill_id: Fetch-Trends\nversion: 0.1.0\n"},
		{"bad version", "skill_id: skill_fetch_trends\nversion: v1\n"},
		{"bad param type", "skill_id: skill_x\nversion: 0.1.0\nparameters:\n  a:\n    type: tuple\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), "skill_bad", tt.content)
			if _, err := LoadManifestFile(path); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
