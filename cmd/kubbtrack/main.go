// Package main provides the CLI entrypoint for kubbtrack.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/kubbtrack/internal/bridge"
	"github.com/verte-zerg/kubbtrack/internal/config"
	"github.com/verte-zerg/kubbtrack/internal/manager"
	"github.com/verte-zerg/kubbtrack/internal/session"
	"github.com/verte-zerg/kubbtrack/internal/stats"
	"github.com/verte-zerg/kubbtrack/internal/store"
	"github.com/verte-zerg/kubbtrack/internal/tui"
)

const (
	defaultVariant     = "standard"
	defaultTarget      = 30
	defaultCurveWindow = 10
	defaultBridgeAddr  = "localhost:8787"
)

var (
	practiceVariant string
	practiceTarget  int

	statsVariant     string
	statsSince       string
	statsLast        int
	statsCurveWindow int

	bridgeAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kubbtrack",
		Short:         "Kubb training tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceVariant, "variant", defaultVariant, "training variant (standard, pitch, blast, game)")
	rootCmd.Flags().IntVar(&practiceTarget, "target", defaultTarget, "session target (throws, hits, or max targets per variant)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newBridgeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "variant", &practiceVariant, fileCfg.Practice.Variant)
	applyIntConfig(cmd, "target", &practiceTarget, fileCfg.Practice.Target)

	variant, err := session.ParseVariant(practiceVariant)
	if err != nil {
		return fmt.Errorf("invalid --variant value: %w", err)
	}
	if practiceTarget <= 0 {
		return fmt.Errorf("--target must be > 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	mgr := manager.New(st, st)
	sess, err := mgr.Restore(ctx, variant)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if sess == nil {
		sess, err = mgr.Start(ctx, variant, practiceTarget)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	model := tui.NewModel(mgr, st, sess)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsVariant, "variant", defaultVariant, "training variant filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	variant, err := session.ParseVariant(statsVariant)
	if err != nil {
		return fmt.Errorf("invalid --variant value: %w", err)
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var sessions []*session.Session
	if statsSince != "" {
		since, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sessions, err = st.ReadByDateRange(ctx, variant, since, time.Now().Add(time.Hour))
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
	} else {
		sessions, err = st.ReadAll(ctx, variant)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
	}

	completed := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed {
			completed = append(completed, s)
		}
	}
	if statsLast > 0 && len(completed) > statsLast {
		completed = completed[len(completed)-statsLast:]
	}

	report := stats.BuildReport(variant, completed)
	if err := stats.Render(cmd.OutOrStdout(), report, statsCurveWindow); err != nil {
		return fmt.Errorf("failed to render stats: %w", err)
	}
	return nil
}

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve the wearable bridge",
		Args:  cobra.NoArgs,
		RunE:  runBridgeCmd,
	}
	cmd.Flags().StringVar(&bridgeAddr, "addr", defaultBridgeAddr, "listen address")
	return cmd
}

func runBridgeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &bridgeAddr, fileCfg.Bridge.Addr)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	mgr := manager.New(st, st)
	for _, variant := range session.Variants {
		if _, err := mgr.Restore(ctx, variant); err != nil {
			return fmt.Errorf("failed to restore %s session: %w", variant, err)
		}
	}

	hub := bridge.NewHub(mgr)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	logErrf("bridge listening on %s\n", bridgeAddr)
	if err := http.ListenAndServe(bridgeAddr, mux); err != nil {
		return fmt.Errorf("bridge server failed: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kubbtrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# variant = %q      # Training variant (standard, pitch, blast, game)
# target = %d            # Session target (throws, hits, or max targets per variant)

[bridge]
# addr = %q  # Wearable bridge listen address
`,
		defaultVariant,
		defaultTarget,
		defaultBridgeAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
