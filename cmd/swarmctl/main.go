// Command swarmctl runs and drives the swarmmind coordinator: `run`
// hosts the coordinator and an initial agent pool until interrupted,
// `submit` files a request and prints its task id, `status` prints a
// task's current state, and `checkpoint` inspects the on-disk
// checkpoint store. Grounded on gomind's cmd/example main.go for the
// overall wiring shape (build components, initialize, run), adapted
// from one HTTP tool's lifecycle to the coordinator's.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmmind/swarmmind/agents"
	"github.com/swarmmind/swarmmind/config"
	"github.com/swarmmind/swarmmind/core"
	"github.com/swarmmind/swarmmind/environment"
	"github.com/swarmmind/swarmmind/llm"
	"github.com/swarmmind/swarmmind/runtime"
	"github.com/swarmmind/swarmmind/swarm"
	"github.com/swarmmind/swarmmind/telemetry"
	"github.com/swarmmind/swarmmind/tools"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "swarmctl",
		Short: "run and drive a swarmmind agent coordinator",
	}
	root.AddCommand(newRunCmd(), newSubmitCmd(), newStatusCmd(), newCheckpointCmd())
	return root
}

// buildAdapter selects go-openai or the raw-HTTP provider per
// cfg.LLM.Provider, mirroring spec §4.1's pluggable-provider contract.
func buildAdapter(cfg *config.Config, logger core.Logger) *llm.Adapter {
	var provider llm.Provider
	switch cfg.LLM.Provider {
	case "openai", "":
		provider = llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, logger)
	default:
		provider = llm.NewHTTPProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.ReasoningClass, logger)
	}
	return llm.NewAdapter(provider,
		llm.WithTimeoutTiers(cfg.LLM.TimeoutSimple, cfg.LLM.TimeoutNormal, cfg.LLM.TimeoutComplex, cfg.LLM.TimeoutReasoning),
	)
}

// buildToolRegistry wires the filesystem, code execution, http, web
// search and git tools under cfg's workspace root (spec §4.2's concrete
// tool set); the database tool is not registered.
func buildToolRegistry(cfg *config.Config) *tools.Registry {
	reg := tools.NewRegistry()
	_ = reg.Register(tools.NewFilesystemTool(cfg.WorkspaceRoot))
	_ = reg.Register(tools.NewCodeExecTool(cfg.WorkspaceRoot, ""))
	_ = reg.Register(tools.NewHTTPTool(30 * time.Second))
	_ = reg.Register(tools.NewWebSearchTool(os.Getenv("SWARMMIND_WEBSEARCH_ENDPOINT"), os.Getenv("SWARMMIND_WEBSEARCH_API_KEY")))
	_ = reg.Register(tools.NewGitTool(cfg.WorkspaceRoot))
	return reg
}

// newAgentFactory returns the callback the coordinator uses for
// auto-scale-up (spec §4.9): every spawned agent runs in the
// configured DefaultMode against the shared adapter and tool registry.
func newAgentFactory(cfg *config.Config, adapter *llm.Adapter, fw agents.FileWriter, logger core.Logger) swarm.AgentFactory {
	return func(role string) (*core.Agent, agents.Behavior) {
		agent := core.NewAgent(core.NewID(), role, role, core.AgentMode(cfg.Agents.DefaultMode), "general")
		cognitive := agents.NewCognitiveBehavior(adapter, fw)
		switch core.AgentMode(cfg.Agents.DefaultMode) {
		case core.ModeReactive:
			return agent, agents.NewReactiveBehavior(agent)
		case core.ModeHybrid:
			return agent, agents.NewHybridBehavior(agents.NewReactiveBehavior(agent), cognitive)
		default:
			return agent, cognitive
		}
	}
}

type wiring struct {
	cfg   *config.Config
	rt    *runtime.Runtime
	env   *environment.Environment
	coord *swarm.Coordinator
}

func buildWiring() (*wiring, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logger := telemetry.NewLogger()
	adapter := buildAdapter(cfg, logger)
	reg := buildToolRegistry(cfg)
	fw, _ := reg.Resolve("filesystem")
	files, _ := fw.(agents.FileWriter)

	env := environment.New(environment.Config{
		ResourceTotals: map[core.ResourceKind]float64{
			core.ResourceCPU:              cfg.Resources.TotalCPU,
			core.ResourceMemory:           cfg.Resources.TotalMemoryMB,
			core.ResourceDiskIOBandwidth:  cfg.Resources.TotalDiskIOBandwidth,
			core.ResourceNetworkBandwidth: cfg.Resources.TotalNetworkBandwidth,
			core.ResourceFileHandles:      cfg.Resources.TotalFileHandles,
			core.ResourceThreads:          cfg.Resources.TotalThreads,
		},
		EventLogCapacity: cfg.Resources.EventLogCapacity,
		Logger:           logger,
	})

	rt := runtime.New(core.NewID, logger)

	var store swarm.Store
	if cfg.Swarm.UseRedisStore {
		logger.Warn("redis checkpoint store requested but no client wired at startup; falling back to file store", nil)
	}
	store = swarm.NewFileStore(cfg.Swarm.CheckpointDir)

	coordAgent := core.NewAgent(core.NewID(), "coordinator", "coordinator", core.ModeCognitive)
	coordCognitive := agents.NewCognitiveBehavior(adapter, files)
	factory := newAgentFactory(cfg, adapter, files, logger)

	coord := swarm.New(rt, coordAgent, coordCognitive, cfg.Swarm, cfg.Agents, cfg.Resources, store, env, factory, logger)

	for i := 0; i < cfg.Agents.InitialPoolSize; i++ {
		agent, behavior := factory(cfg.Agents.DefaultMode)
		env.RegisterEntity(agent.ID, core.Location{Namespace: "swarm"}, core.VisibilityFull)
		if err := rt.RegisterAgent(agent, behavior, nil, nil); err != nil {
			return nil, err
		}
	}

	return &wiring{cfg: cfg, rt: rt, env: env, coord: coord}, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "host the coordinator and initial agent pool until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			for _, id := range w.rt.ListAgents() {
				if err := w.rt.StartAgent(ctx, id); err != nil {
					return err
				}
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				w.coord.EmergencyStop(context.Background())
				cancel()
			}()

			return w.coord.Run(ctx)
		},
	}
}

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <request text>",
		Short: "submit a request to a freshly started coordinator and print its task id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() { _ = w.coord.Run(ctx) }()
			time.Sleep(100 * time.Millisecond) // let loops start before intake

			taskID, err := w.coord.ProcessRequest(cmd.Context(), joinArgs(args))
			if err != nil {
				return err
			}
			fmt.Println(taskID)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "print a task's current state from the latest checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			store := swarm.NewFileStore(cfg.Swarm.CheckpointDir)
			cp, err := store.LoadLatest(cmd.Context())
			if err != nil {
				return err
			}
			if cp == nil {
				return fmt.Errorf("no checkpoint found under %s", cfg.Swarm.CheckpointDir)
			}
			task, ok := cp.Tasks[args[0]]
			if !ok {
				return fmt.Errorf("task %s not found in latest checkpoint", args[0])
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(task)
		},
	}
}

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "inspect the on-disk checkpoint store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "print the latest checkpoint's metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			store := swarm.NewFileStore(cfg.Swarm.CheckpointDir)
			cp, err := store.LoadLatest(cmd.Context())
			if err != nil {
				return err
			}
			if cp == nil {
				fmt.Println("no checkpoint found")
				return nil
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cp.Metrics)
		},
	})
	return cmd
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
