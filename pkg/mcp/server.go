// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the skill registry as MCP tools over stdio so external
// agent hosts can invoke skills through the standard tool protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
)

// Server wraps the mcp-go server around a skill registry.
type Server struct {
	mcpServer *server.MCPServer
	registry  *skills.Registry
	runner    *skills.Runner
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRunner overrides the skill runner used for tool calls.
func WithRunner(r *skills.Runner) ServerOption {
	return func(s *Server) { s.runner = r }
}

// NewServer creates an MCP server and registers every skill in the registry
// as a tool.
func NewServer(name, version string, registry *skills.Registry, opts ...ServerOption) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		registry:  registry,
		runner:    skills.NewRunner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, desc := range registry.List() {
		s.registerSkill(desc.SkillID)
	}
	return s
}

func (s *Server) registerSkill(skillID string) {
	skill, ok := s.registry.Get(skillID)
	if !ok {
		return
	}
	tool := mcp.NewTool(skillID, toolOptions(skill)...)
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		out := s.runner.Run(ctx, skill, skills.Input{
			SkillID:    skillID,
			Parameters: args,
		})
		encoded, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		// Skill failures travel as data; the envelope stays a success so the
		// caller branches on the output's status field.
		return mcp.NewToolResultText(string(encoded)), nil
	})
}

// toolOptions translates a skill schema into MCP tool parameter declarations.
// Parameters are declared in name order so the advertised schema is stable.
func toolOptions(skill skills.Skill) []mcp.ToolOption {
	schema := skill.Schema()
	desc := skill.Descriptor()
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("%s (version %s)", desc.SkillID, desc.Version)),
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := schema[name]
		var propOpts []mcp.PropertyOption
		if spec.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch spec.Type {
		case skills.TypeString:
			if len(spec.Enum) > 0 {
				values := make([]string, 0, len(spec.Enum))
				for _, v := range spec.Enum {
					values = append(values, fmt.Sprint(v))
				}
				propOpts = append(propOpts, mcp.Enum(values...))
			}
			opts = append(opts, mcp.WithString(name, propOpts...))
		case skills.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(name, propOpts...))
		default:
			opts = append(opts, mcp.WithNumber(name, propOpts...))
		}
	}
	return opts
}

// ServeStdio starts the server on stdio and blocks until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
