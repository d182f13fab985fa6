package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk declaration of a skill: identity plus the
// declarative parameter schema callers and UIs use to build valid inputs.
type Manifest struct {
	SkillID     string `yaml:"skill_id"`
	Version     string `yaml:"version"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Parameters  Schema `yaml:"parameters"`
	Path        string `yaml:"-"`
}

const (
	maxNameLen        = 64
	maxDescriptionLen = 1024
)

var (
	skillIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// LoadManifestDir scans a directory for skill subdirectories with skill.yaml.
func LoadManifestDir(root string) ([]Manifest, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(root, entry.Name(), "skill.yaml")
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		manifest, err := LoadManifestFile(manifestPath)
		if err != nil {
			return nil, err
		}
		out = append(out, manifest)
	}
	return out, nil
}

// LoadManifestFile parses and validates a single skill.yaml file.
func LoadManifestFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	manifest.Path = path
	if err := validateManifest(manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// Descriptor returns the registry descriptor for the manifest.
func (m Manifest) Descriptor() Descriptor {
	return Descriptor{SkillID: m.SkillID, Version: m.Version}
}

func validateManifest(m Manifest) error {
	id := strings.TrimSpace(m.SkillID)
	if id == "" {
		return errors.New("skill_id is required")
	}
	if !skillIDPattern.MatchString(id) {
		return fmt.Errorf("skill_id must match %s", skillIDPattern.String())
	}
	if !versionPattern.MatchString(strings.TrimSpace(m.Version)) {
		return fmt.Errorf("version must be a semver string, got %q", m.Version)
	}
	name := strings.TrimSpace(m.Name)
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(strings.TrimSpace(m.Description)) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	for param, spec := range m.Parameters {
		switch spec.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			return fmt.Errorf("parameter %q has unknown type %q", param, spec.Type)
		}
	}
	return nil
}
