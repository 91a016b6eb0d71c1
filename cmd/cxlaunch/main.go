// Package main is the CLI entry point for cxlaunch.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/config"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/infra"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cxlaunch",
	Short: "Launch Windows games in CrossOver bottles",
	Long: `cxlaunch starts Windows game executables inside CrossOver bottles,
tracks how long each session runs, and finds bottles and games on disk.

Configuration comes from CXLAUNCH_* environment variables.`,
	Version:      Version,
	SilenceUsage: true,
}

var bottlesCmd = &cobra.Command{
	Use:   "bottles [root]",
	Short: "List CrossOver bottles",
	Long:  `Lists the bottle directories under root (default: CXLAUNCH_BOTTLES_DIR).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBottles,
}

var scanCmd = &cobra.Command{
	Use:   "scan <library>",
	Short: "Find games in a library directory",
	Long: `Treats every directory under <library> as a game and lists the .exe files
found inside it, up to 5 levels deep. Directories without executables are omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var findCmd = &cobra.Command{
	Use:   "find <dir>",
	Short: "List .exe files under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <game.exe>",
	Short: "Print search keywords for a game executable",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeywords,
}

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Save or load the instance list",
}

var instancesSaveCmd = &cobra.Command{
	Use:   "save [json]",
	Short: "Replace the stored instance list (reads stdin without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInstancesSave,
}

var instancesLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print the stored instance list",
	Args:  cobra.NoArgs,
	RunE:  runInstancesLoad,
}

var playtimeCmd = &cobra.Command{
	Use:   "playtime <instance-id>",
	Short: "Show recorded play time for an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaytime,
}

var homeCmd = &cobra.Command{
	Use:   "home [path]",
	Short: "Print the home directory, or expand a ~/ path",
	Args:  cobra.MaximumNArgs(1),
	Run:   runHome,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	jsonOutput   bool
	showSessions bool
)

func init() {
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	playtimeCmd.Flags().BoolVar(&showSessions, "sessions", false, "List individual sessions")

	instancesCmd.AddCommand(instancesSaveCmd)
	instancesCmd.AddCommand(instancesLoadCmd)

	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(bottlesCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(playtimeCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, createLogger(cfg), nil
}

func newDiscovery(logger *zap.Logger) domain.Discovery {
	fm := infra.NewFileSystemManager()
	return usecase.NewDiscovery(fm.Fs(), fm, logger)
}

func runBottles(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	root := cfg.BottlesDir
	if len(args) == 1 {
		root = args[0]
	}

	names, err := newDiscovery(logger).ListContainers(root)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	games, err := newDiscovery(logger).ScanGameDirectories(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(games)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found.")
		return nil
	}
	for _, g := range games {
		fmt.Fprintf(out, "[%s]\n", g.DirectoryName)
		for _, exe := range g.Executables {
			fmt.Fprintf(out, "  - %s\n", exe)
		}
	}
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	for _, exe := range newDiscovery(logger).FindExecutables(args[0]) {
		fmt.Fprintln(cmd.OutOrStdout(), exe)
	}
	return nil
}

func runKeywords(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(newDiscovery(logger).ExtractKeywords(args[0]), " "))
	return nil
}

func runInstancesSave(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var data string
	if len(args) == 1 {
		data = args[0]
	} else {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		data = string(raw)
	}

	store := infra.NewFileInstanceStore(cfg.DataDir)
	if err := store.Save(data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", store.Path())
	return nil
}

func runInstancesLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := infra.NewFileInstanceStore(cfg.DataDir).Load()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), data)
	return nil
}

func runPlaytime(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ledger, err := infra.OpenPlaytimeLedger(cfg.DataDir, nil, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	instanceID := args[0]
	total, err := ledger.Total(instanceID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", instanceID, total)

	if showSessions {
		sessions, err := ledger.Sessions(instanceID)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			fmt.Fprintf(out, "  %s  %s\n",
				s.FinishedAt.Local().Format(time.DateTime),
				time.Duration(s.DurationSec)*time.Second)
		}
	}
	return nil
}

func runHome(cmd *cobra.Command, args []string) {
	fm := infra.NewFileSystemManager()
	if len(args) == 1 {
		fmt.Fprintln(cmd.OutOrStdout(), fm.ExpandHome(args[0]))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), fm.ExpandHome("~/"))
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("cxlaunch %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
