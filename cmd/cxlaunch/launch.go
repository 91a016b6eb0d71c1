package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/events"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/infra"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/runtime"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/usecase"
)

var launchCmd = &cobra.Command{
	Use:   "launch <game.exe>",
	Short: "Launch a game inside a CrossOver bottle",
	Long: `Starts <game.exe> with CrossOver's wine inside the given bottle and prints its PID.

Unless --detach is set, cxlaunch then waits for the game to exit, records the
session in the playtime ledger, and prints one JSON line:

  {"event":"game-finished","payload":{"instance_id":"...","duration_sec":123}}

--bottle takes a bottle directory, or a bare name looked up in CXLAUNCH_BOTTLES_DIR.`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

var (
	launchBottle     string
	launchRuntimeApp string
	launchInstanceID string
	launchDetach     bool
	stopOnInterrupt  bool
)

func init() {
	launchCmd.Flags().StringVarP(&launchBottle, "bottle", "b", "", "Bottle directory or name (required)")
	launchCmd.Flags().StringVar(&launchRuntimeApp, "runtime-app", "", "CrossOver.app path (default: CXLAUNCH_RUNTIME_APP)")
	launchCmd.Flags().StringVar(&launchInstanceID, "id", "", "Instance ID reported in the completion event (default: random UUID)")
	launchCmd.Flags().BoolVar(&launchDetach, "detach", false, "Return after printing the PID")
	launchCmd.Flags().BoolVar(&stopOnInterrupt, "stop-on-interrupt", false, "Terminate the game on Ctrl-C instead of detaching")
	_ = launchCmd.MarkFlagRequired("bottle")
}

// bottlePath turns a bare bottle name into a path under bottlesDir.
func bottlePath(bottle, bottlesDir string) string {
	if bottle == "" || strings.HasPrefix(bottle, "~") || strings.ContainsRune(bottle, filepath.Separator) {
		return bottle
	}
	return filepath.Join(bottlesDir, bottle)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := runtime.NewRegistry().Get(cfg.Runtime)
	if err != nil {
		return err
	}

	instanceID := launchInstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	runtimeApp := launchRuntimeApp
	if runtimeApp == "" {
		runtimeApp = cfg.RuntimeApp
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(logger)
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		_ = bus.Run(ctx)
	}()

	var consumers sync.WaitGroup
	out := events.NewJSONWriter(cmd.OutOrStdout())
	outCh, _ := bus.Subscribe(1)
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		events.Consume(ctx, outCh, logger, out.Write)
	}()

	ledger, err := infra.OpenPlaytimeLedger(cfg.DataDir, nil, logger)
	if err != nil {
		logger.Warn("playtime will not be recorded", zap.Error(err))
	} else {
		defer ledger.Close()
		ledgerCh, _ := bus.Subscribe(1)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			events.Consume(ctx, ledgerCh, logger, events.RecordPlaytime(ledger))
		}()
	}

	// Signals that arrive during Launch are handled once it returns.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fm := infra.NewFileSystemManager()
	supervisor := usecase.NewSupervisor(usecase.NewProcessTable(), bus, nil, logger)
	launcher := usecase.NewLauncher(fm, rt, infra.NewExecSpawner(), supervisor, infra.NewProcessManager(), nil, logger)

	pid, err := launcher.Launch(ctx, domain.LaunchRequest{
		InstanceID:         instanceID,
		GameExecutablePath: args[0],
		ContainerPath:      bottlePath(launchBottle, cfg.BottlesDir),
		RuntimeAppPath:     runtimeApp,
	})
	if err != nil {
		bus.Close()
		<-busDone
		consumers.Wait()
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), pid)
	if launchDetach {
		bus.Close()
		<-busDone
		consumers.Wait()
		return nil
	}

	finished := make(chan struct{})
	go func() {
		supervisor.Wait()
		close(finished)
	}()

	var stop func() error
	if stopOnInterrupt {
		stop = func() error { return launcher.Stop(instanceID) }
	}
	awaitGame(finished, sigChan, stop, logger.With(
		zap.String("instance_id", instanceID),
		zap.Int("pid", pid)))

	// Close lets Run deliver the queued event, then closes the subscriber channels.
	bus.Close()
	<-busDone
	consumers.Wait()
	return nil
}

// awaitGame blocks until the game finishes or a signal arrives. On a signal
// it detaches, or calls stop when one is given and then waits for the game.
// If stop fails the game may still be running, so it detaches instead.
// It reports whether the game finished.
func awaitGame(finished <-chan struct{}, sigs <-chan os.Signal, stop func() error, logger *zap.Logger) bool {
	select {
	case <-finished:
		return true
	case sig := <-sigs:
		if stop == nil {
			logger.Info("detaching from game", zap.String("signal", sig.String()))
			return false
		}
		logger.Info("stopping game", zap.String("signal", sig.String()))
		if err := stop(); err != nil {
			logger.Warn("failed to stop game, detaching", zap.Error(err))
			return false
		}
		<-finished
		return true
	}
}
