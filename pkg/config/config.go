// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the agent configuration from defaults, an optional
// YAML file, and AGENTIC_-prefixed environment variables, in that order.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/engagement"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
)

type Config struct {
	Log        LogConfig                 `koanf:"log"`
	Skills     SkillsConfig              `koanf:"skills"`
	Trends     TrendsConfig              `koanf:"trends"`
	Guardian   GuardianConfig            `koanf:"guardian"`
	Gate       GateConfig                `koanf:"gate"`
	Router     RouterConfig              `koanf:"router"`
	Memory     MemoryConfig              `koanf:"memory"`
	Approval   ApprovalConfig            `koanf:"approval"`
	Engagement engagement.Policy         `koanf:"engagement"`
	Platforms  map[string]PlatformConfig `koanf:"platforms"`
	Telemetry  TelemetryConfig           `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

// SkillsConfig points at a directory of skill manifests (one skill.yaml per
// skill subdirectory) published alongside the built-in registry.
type SkillsConfig struct {
	Dir string `koanf:"dir"`
}

type TrendsConfig struct {
	Endpoint          string `koanf:"endpoint"`
	APIKey            string `koanf:"api_key"`
	VelocityThreshold int    `koanf:"velocity_threshold"`
	DefaultSource     string `koanf:"default_source"`
	DefaultWindow     string `koanf:"default_window"`
}

type GuardianConfig struct {
	Dimensions map[string]guardian.Policy `koanf:"dimensions"`
}

type GateConfig struct {
	Threshold float64 `koanf:"threshold"`
	Currency  string  `koanf:"currency"`
}

type RouterConfig struct {
	SkillTimeout time.Duration `koanf:"skill_timeout"`
}

type MemoryConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Provider   string `koanf:"provider"` // qdrant, inmemory
	QdrantAddr string `koanf:"qdrant_addr"`
	Collection string `koanf:"collection"`
	VectorSize uint64 `koanf:"vector_size"`
}

type ApprovalConfig struct {
	DBPath        string        `koanf:"db_path"` // empty means in-memory
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

type PlatformConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"` // stdout, otlp
	Endpoint string `koanf:"endpoint"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("trends.velocity_threshold", 100)
	k.Set("trends.default_source", "moltbook")
	k.Set("trends.default_window", "24h")

	k.Set("guardian.dimensions.brand_safety.threshold", 0.8)
	k.Set("guardian.dimensions.brand_safety.floor", 0.5)
	k.Set("guardian.dimensions.security.threshold", 0.9)
	k.Set("guardian.dimensions.security.floor", 0.5)
	k.Set("guardian.dimensions.security.hard_fail", true)
	k.Set("guardian.dimensions.compliance.threshold", 0.9)
	k.Set("guardian.dimensions.compliance.floor", 0.5)

	k.Set("gate.threshold", 10.0)
	k.Set("gate.currency", "USDC")

	k.Set("router.skill_timeout", "30s")

	k.Set("memory.enabled", false)
	k.Set("memory.provider", "inmemory")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "published_content")
	k.Set("memory.vector_size", 384)

	k.Set("approval.ttl", "24h")
	k.Set("approval.sweep_interval", "1m")

	k.Set("engagement.response_deadline", "30m")
	k.Set("engagement.window", "1h")
	k.Set("engagement.max_replies_per_window", 10)

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (AGENTIC_GATE__THRESHOLD -> gate.threshold)
	if err := k.Load(env.Provider("AGENTIC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "AGENTIC_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
