// Command runtimectl is a thin CLI front end for a single agent server:
// load a config file, submit one signal, print the resulting state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jidogo/runtime/action/builtin"
	"github.com/jidogo/runtime/agent"
	coresignal "github.com/jidogo/runtime/core/signal"
	"github.com/jidogo/runtime/orchestrate/chain"
	"github.com/jidogo/runtime/orchestrate/config"
	"github.com/jidogo/runtime/orchestrate/workflow"
	"github.com/jidogo/runtime/runtime"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to server config JSON file (optional; defaults apply)")
		agentID    = flag.String("agent-id", "", "Agent ID for the server (required)")
		signalType = flag.String("type", "", "Signal type, e.g. jido.agent.cmd.run (required)")
		action     = flag.String("action", "", "Action name for a single-instruction command signal")
		paramsJSON = flag.String("params", "{}", "JSON object of instruction params")
		subject    = flag.String("subject", "", "Signal subject")
		verbose    = flag.Bool("verbose", false, "Enable debug logging to stderr")
	)
	flag.Parse()

	if *agentID == "" || *signalType == "" {
		fmt.Fprintln(os.Stderr, "Usage: runtimectl -agent-id <id> -type <signal-type> [-action <name> -params <json>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.DefaultServerConfig()
	if *configFile != "" {
		loaded, err := config.LoadServerConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	if err := builtin.RegisterAll(); err != nil {
		// Re-running against the same process is not a supported usage, but
		// guard against it anyway rather than crashing on a re-invocation.
		log.Printf("builtin actions: %v", err)
	}

	server, err := buildServer(*agentID, cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(*paramsJSON), &params); err != nil {
		log.Fatalf("invalid -params JSON: %v", err)
	}

	var instructions []coresignal.Instruction
	if *action != "" {
		instr, err := coresignal.NewInstruction(*action, params, nil, nil)
		if err != nil {
			log.Fatalf("failed to build instruction: %v", err)
		}
		instructions = []coresignal.Instruction{instr}
	}

	sig, err := coresignal.New(*agentID, *signalType, *subject, nil, instructions, nil)
	if err != nil {
		log.Fatalf("invalid signal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := server.Submit(ctx, sig); err != nil {
		log.Fatalf("signal processing failed: %v", err)
	}

	printResult(server)
}

// buildServer assembles the default chain-backed agent (workflow
// executor + chain runner) and wraps it in a Server, the same layering
// the runtime package's own tests use.
func buildServer(agentID string, cfg config.ServerConfig) (*runtime.Server, error) {
	executor, err := workflow.New(cfg.Workflow)
	if err != nil {
		return nil, fmt.Errorf("build workflow executor: %w", err)
	}

	runner, err := chain.New(cfg.Chain, executor)
	if err != nil {
		return nil, fmt.Errorf("build chain runner: %w", err)
	}

	impl := chain.NewAgent(runner)

	return runtime.NewServer(agentID, impl, cfg, runtime.WithRegistry(agent.NewRegistry()))
}

func printResult(server *runtime.Server) {
	state := server.State()
	fmt.Printf("Status: %s\n", server.Status())
	fmt.Printf("Data: %v\n", state.Data)
	fmt.Printf("Result: %v\n", state.Result)

	directives := server.DrainServerDirectives()
	if len(directives) > 0 {
		fmt.Println("\nServer directives (not yet applied):")
		for i, d := range directives {
			fmt.Printf("  [%d] kind=%s\n", i+1, d.Kind)
		}
	}
}
