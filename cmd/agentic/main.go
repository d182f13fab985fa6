// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

// Command agentic runs the trend-to-content pipeline: scan trends, draft a
// post, pass it through safety clearance, and publish or escalate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/agents"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/approval"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/config"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/guardian"
	agenticmcp "github.com/milkesa2013/Agentic-Infrastructure/pkg/mcp"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/memory"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/memory/qdrant"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/platform"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/router"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/skills"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/telemetry"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/trends"
	"github.com/milkesa2013/Agentic-Infrastructure/pkg/wallet"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentic: load config: %v\n", err)
		os.Exit(1)
	}
	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("agentic", version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.Endpoint,
			OTLPInsecure: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "agentic: init telemetry: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	var exitCode int
	switch args[0] {
	case "run":
		exitCode = cmdRun(cfg, args[1:])
	case "skills":
		exitCode = cmdSkills(cfg)
	case "approvals":
		exitCode = cmdApprovals(cfg, args[1:])
	case "serve-mcp":
		exitCode = cmdServeMCP(cfg)
	case "version":
		fmt.Println(version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "agentic: unknown command %q\n", args[0])
		usage()
		exitCode = 2
	}
	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: agentic [-config path] <command>

Commands:
  run         execute one pipeline cycle (scan, draft, judge, deliver)
  skills      list registered skills
  approvals   list or resolve pending approvals
  serve-mcp   expose skills as MCP tools over stdio
  version     print the version
`)
}

func buildRegistry(cfg *config.Config) *skills.Registry {
	var fetcher trends.Fetcher
	if cfg.Trends.Endpoint != "" {
		fetcher = trends.NewAPIFetcher(cfg.Trends.Endpoint, trends.WithAPIKey(cfg.Trends.APIKey))
	}
	registry := skills.NewRegistry()
	registry.Register(trends.NewFetchSkill(fetcher,
		trends.WithDefaultThreshold(cfg.Trends.VelocityThreshold)))
	return registry
}

func buildEngine(cfg *config.Config) *guardian.Engine {
	policy := func(name string) guardian.Policy { return cfg.Guardian.Dimensions[name] }
	return guardian.NewEngine(
		guardian.WithValidator(guardian.NewBrandSafetyValidator(), policy("brand_safety")),
		guardian.WithValidator(guardian.NewSecurityValidator(), policy("security")),
		guardian.WithValidator(guardian.NewComplianceValidator(), policy("compliance")),
	)
}

func buildApprovals(cfg *config.Config) (approval.Store, func(), error) {
	if cfg.Approval.DBPath == "" {
		return approval.NewMemoryStore(), func() {}, nil
	}
	store, err := approval.OpenSQLiteStore(cfg.Approval.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func buildAdapter(cfg *config.Config) platform.Adapter {
	if pc, ok := cfg.Platforms["moltbook"]; ok && pc.BaseURL != "" {
		return platform.NewMoltbookAdapter(pc.BaseURL, pc.APIKey)
	}
	return platform.NewStaticAdapter("moltbook")
}

func cmdRun(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	source := fs.String("source", cfg.Trends.DefaultSource, "trend source to scan")
	window := fs.String("window", cfg.Trends.DefaultWindow, "time window (1h, 6h, 24h, 7d)")
	threshold := fs.Int("velocity", cfg.Trends.VelocityThreshold, "minimum trend velocity")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildApprovals(cfg)
	if err != nil {
		slog.Error("open approval store", "error", err)
		return 1
	}
	defer closeStore()

	sweeper := approval.NewSweeper(store, cfg.Approval.SweepInterval,
		approval.WithSweepTimeout(10*time.Second))
	sweeper.Start()
	defer sweeper.Stop()

	rt := router.New(buildRegistry(cfg),
		router.WithRunner(skills.NewRunner(skills.WithTimeout(cfg.Router.SkillTimeout))))

	metrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		slog.Error("register metrics", "error", err)
		return 1
	}

	opts := []agents.PipelineOption{
		agents.WithApprovals(store),
		agents.WithApprovalTTL(cfg.Approval.TTL),
		agents.WithMetrics(metrics),
		agents.WithEngagement(cfg.Engagement),
		agents.WithGate(
			wallet.NewGate(wallet.NewConsoleNotifier(),
				wallet.WithThreshold(cfg.Gate.Threshold),
				wallet.WithCurrency(cfg.Gate.Currency)),
			wallet.NewInMemoryProvider(nil)),
	}
	if cfg.Memory.Enabled {
		archive, err := buildArchive(ctx, cfg)
		if err != nil {
			slog.Error("init memory archive", "error", err)
			return 1
		}
		opts = append(opts, agents.WithArchive(archive))
	}

	pipeline := agents.NewPipeline(rt, buildEngine(cfg), agents.NewTemplateGenerator(""), buildAdapter(cfg), opts...)

	result, err := pipeline.Run(ctx, agents.Goal{
		Source:            *source,
		TimeWindow:        *window,
		VelocityThreshold: *threshold,
	})
	if err != nil {
		slog.Error("pipeline run", "error", err)
		return 1
	}

	if *asJSON {
		encoded, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(encoded))
	} else {
		fmt.Printf("task %s finished %s", result.TaskID, result.Status)
		if result.Reason != "" {
			fmt.Printf(" (%s)", result.Reason)
		}
		fmt.Println()
	}
	if result.Status == agents.RunFailed {
		return 1
	}
	return 0
}

func buildArchive(ctx context.Context, cfg *config.Config) (*memory.Archive, error) {
	var store memory.VectorStore
	if cfg.Memory.Provider == "qdrant" {
		qs, err := qdrant.New(cfg.Memory.QdrantAddr)
		if err != nil {
			return nil, err
		}
		store = qs
	} else {
		store = memory.NewInMemoryVectorStore()
	}
	archive := memory.NewArchive(store, hashEmbedder{},
		memory.WithCollection(cfg.Memory.Collection),
		memory.WithVectorSize(cfg.Memory.VectorSize))
	if err := archive.Init(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

type skillRow struct {
	ID      string
	Version string
	Source  string
}

// listSkills merges registered skills with on-disk manifests. Manifests for
// skills that never registered show up as declared-only so an operator can
// spot implementations that failed to load.
func listSkills(registry *skills.Registry, manifests []skills.Manifest) []skillRow {
	registered := make(map[string]bool)
	var rows []skillRow
	for _, desc := range registry.List() {
		rows = append(rows, skillRow{ID: desc.SkillID, Version: desc.Version, Source: "registered"})
		registered[desc.SkillID] = true
	}
	for _, m := range manifests {
		if registered[m.SkillID] {
			continue
		}
		rows = append(rows, skillRow{ID: m.SkillID, Version: m.Version, Source: "declared"})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func cmdSkills(cfg *config.Config) int {
	registry := buildRegistry(cfg)
	var manifests []skills.Manifest
	if cfg.Skills.Dir != "" {
		var err error
		manifests, err = skills.LoadManifestDir(cfg.Skills.Dir)
		if err != nil {
			slog.Error("load skill manifests", "dir", cfg.Skills.Dir, "error", err)
			return 1
		}
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKILL\tVERSION\tSOURCE")
	for _, row := range listSkills(registry, manifests) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.ID, row.Version, row.Source)
	}
	w.Flush()
	return 0
}

func cmdApprovals(cfg *config.Config, args []string) int {
	store, closeStore, err := buildApprovals(cfg)
	if err != nil {
		slog.Error("open approval store", "error", err)
		return 1
	}
	defer closeStore()

	ctx := context.Background()
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		records, err := store.List(ctx, approval.Filter{Status: approval.StatusPending})
		if err != nil {
			slog.Error("list approvals", "error", err)
			return 1
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTASK\tKIND\tREASON\tEXPIRES")
		for _, r := range records {
			expires := "-"
			if !r.ExpiresAt.IsZero() {
				expires = r.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.TaskID, r.Kind, r.Reason, expires)
		}
		w.Flush()
		return 0
	case "approve", "reject":
		fs := flag.NewFlagSet("approvals "+args[0], flag.ContinueOnError)
		id := fs.String("id", "", "approval id")
		reason := fs.String("reason", "", "review note")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *id == "" {
			fmt.Fprintln(os.Stderr, "agentic: -id is required")
			return 2
		}
		status := approval.StatusApproved
		if args[0] == "reject" {
			status = approval.StatusRejected
		}
		record, err := store.UpdateStatus(ctx, *id, status, *reason)
		if err != nil {
			slog.Error("update approval", "error", err)
			return 1
		}
		fmt.Printf("approval %s is now %s\n", record.ID, record.Status)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "agentic: unknown approvals subcommand %q\n", args[0])
		return 2
	}
}

func cmdServeMCP(cfg *config.Config) int {
	server := agenticmcp.NewServer("agentic", version, buildRegistry(cfg),
		agenticmcp.WithRunner(skills.NewRunner(skills.WithTimeout(cfg.Router.SkillTimeout))))
	slog.Info("serving skills over MCP stdio")
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp server", "error", err)
		return 1
	}
	return 0
}
