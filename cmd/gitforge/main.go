package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gitforge/gitforge/internal/agent"
	"github.com/gitforge/gitforge/internal/ant"
	"github.com/gitforge/gitforge/internal/config"
	"github.com/gitforge/gitforge/internal/logger"
	"github.com/gitforge/gitforge/internal/mcp"
	"github.com/gitforge/gitforge/internal/store"
	"github.com/gitforge/gitforge/internal/vcs"
)

const version = "2.0.0"

var (
	cfg      *config.Config
	cfgPath  string
	heading  = color.New(color.FgCyan, color.Bold)
	okColor  = color.New(color.FgGreen)
	errColor = color.New(color.FgRed)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gitforge",
		Short:   "Forge your Git workflow",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			heading.Println("GitForge: Forge your Git workflow")
			fmt.Println("Usage: gitforge mcp-serve | worktree | agent | ui")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", config.GetConfigPath(), "configuration file")

	root.AddCommand(
		newServeCmd(),
		newWorktreeCmd(),
		newAgentCmd(),
		newUICmd(),
		newBrowserCmd(),
	)
	return root
}

func setup() error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if envLevel := strings.TrimSpace(os.Getenv("GITFORGE_LOG_LEVEL")); envLevel != "" {
		cfg.LogLevel = envLevel
	}
	if envPath := strings.TrimSpace(os.Getenv("GITFORGE_LOG_PATH")); envPath != "" {
		cfg.LogPath = envPath
	}

	return logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath)
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "mcp-serve [repo]",
		Aliases: []string{"serve"},
		Short:   "MCP server for AI coding agents",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.RepoPath = args[0]
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			srv, err := mcp.NewServer(cfg)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			heading.Printf("MCP Server: ws://%s for %s\n", srv.Addr(), cfg.RepoPath)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			logger.Info("shutting down")
			return srv.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port)")
	return cmd
}

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Git worktree helper",
	}
	cmd.AddCommand(newWorktreeCreateCmd(), newWorktreeListCmd())
	return cmd
}

func newWorktreeCreateCmd() *cobra.Command {
	var path, branch string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a worktree and register it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if path == "" {
				path = ".worktrees/" + name
			}
			if branch == "" {
				branch = name
			}

			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			backend := vcs.NewGit(cfg.RepoPath)
			ref, err := backend.AddWorktree(cmd.Context(), path, branch)
			if err != nil {
				return err
			}
			if err := st.UpsertWorktree(cmd.Context(), name, path, branch); err != nil {
				return err
			}

			okColor.Printf("Worktree '%s' created at %s (%s)\n", name, path, ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "worktree checkout path")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to check out")
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered worktrees",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			items, err := st.ListWorktrees(cmd.Context())
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No worktrees registered")
				return nil
			}
			for _, wt := range items {
				fmt.Printf("%-20s %-30s %s\n", wt.Name, wt.Branch, wt.Path)
			}
			return nil
		},
	}
}

func newAgentCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "agent [repo]",
		Short: "Local BPGT agent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.RepoPath = args[0]
			}

			engine := ant.NewEngine()
			events, cancel := engine.Subscribe()
			defer cancel()

			goalID := uuid.NewString()
			if err := engine.CreateGoal(goalID, "Analyze repository "+cfg.RepoPath); err != nil {
				return err
			}

			drainEvents(cmd.Context(), events, 2)

			if text != "" {
				a := agent.New(cfg.DBPath())
				out, err := a.ProcessVoice(cmd.Context(), text)
				if err != nil {
					return err
				}
				fmt.Println(out)
			}

			okColor.Printf("BPGT agent started for %s (goal %s)\n", cfg.RepoPath, goalID)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "voice", "", "voice input to process")
	return cmd
}

// drainEvents prints up to n pending goal events without blocking forever.
func drainEvents(ctx context.Context, events <-chan ant.VersionedEvent, n int) {
	for i := 0; i < n; i++ {
		select {
		case ev := <-events:
			fmt.Printf("event %s goal=%s status=%s\n", ev.Event.Type, ev.Event.GoalID, ev.Event.Status)
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Launch the desktop UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			heading.Println("GitForge UI starting...")
			fmt.Println("The desktop shell is distributed separately; start it from there.")
			return nil
		},
	}
}

func newBrowserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browser <url>",
		Short: "Embedded browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Opening %s in GitForge Browser\n", args[0])
			return nil
		},
	}
}
