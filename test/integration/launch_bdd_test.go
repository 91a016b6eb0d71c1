//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/events"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/infra"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/runtime"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/usecase"
	"github.com/eliteGoblin/focusd/cxlaunch/test/fixtures"
)

var _ = Describe("Launcher", func() {
	var (
		tmpDir     string
		crossover  *fixtures.FakeCrossOver
		envFile    string
		bus        *events.Bus
		busDone    chan struct{}
		ledger     *infra.PlaytimeLedger
		received   []domain.CompletionEvent
		receivedMu sync.Mutex
		consumed   sync.WaitGroup
		supervisor *usecase.Supervisor
		launcher   domain.Launcher
	)

	eventsFor := func(id string) []domain.CompletionEvent {
		receivedMu.Lock()
		defer receivedMu.Unlock()
		var out []domain.CompletionEvent
		for _, e := range received {
			if e.InstanceID == id {
				out = append(out, e)
			}
		}
		return out
	}

	shutdown := func() {
		supervisor.Wait()
		bus.Close()
		<-busDone
		consumed.Wait()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cxlaunch-integration-*")
		Expect(err).NotTo(HaveOccurred())

		envFile = filepath.Join(tmpDir, "wine-env.txt")
		crossover = fixtures.NewFakeCrossOver(tmpDir)
		Expect(crossover.Create(`echo "$1|$CX_BOTTLE|$WINEPREFIX|$LC_ALL|$WINEDEBUG" >> "` + envFile + `"
sleep "${GAME_SECONDS:-2}"`)).To(Succeed())

		logger := zap.NewNop()
		bus = events.NewBus(logger)
		busDone = make(chan struct{})
		go func() {
			defer close(busDone)
			_ = bus.Run(context.Background())
		}()

		ledger, err = infra.OpenPlaytimeLedger(filepath.Join(tmpDir, "data"), nil, logger)
		Expect(err).NotTo(HaveOccurred())

		received = nil
		sub, _ := bus.Subscribe(16)
		ledgerSub, _ := bus.Subscribe(16)
		consumed.Add(2)
		go func() {
			defer consumed.Done()
			events.Consume(context.Background(), sub, logger, func(e domain.CompletionEvent) error {
				receivedMu.Lock()
				defer receivedMu.Unlock()
				received = append(received, e)
				return nil
			})
		}()
		go func() {
			defer consumed.Done()
			events.Consume(context.Background(), ledgerSub, logger, events.RecordPlaytime(ledger))
		}()

		supervisor = usecase.NewSupervisor(usecase.NewProcessTable(), bus, nil, logger)
		launcher = usecase.NewLauncher(
			infra.NewFileSystemManagerWithHome(tmpDir),
			runtime.NewCrossOver(),
			infra.NewExecSpawner(),
			supervisor,
			infra.NewProcessManager(),
			nil,
			logger,
		)
	})

	AfterEach(func() {
		ledger.Close()
		os.RemoveAll(tmpDir)
	})

	Describe("Launch", func() {
		Context("when every path exists", func() {
			It("should report one completion with the elapsed time", func() {
				pid, err := launcher.Launch(context.Background(), domain.LaunchRequest{
					InstanceID:         "mygame",
					GameExecutablePath: "~/Games/MyGame/MyGame.exe",
					ContainerPath:      "~/Library/Application Support/CrossOver/Bottles/Steam",
					RuntimeAppPath:     "~/Applications/CrossOver.app",
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(pid).To(BeNumerically(">", 0))
				Expect(launcher.Running()).To(HaveLen(1))

				shutdown()

				got := eventsFor("mygame")
				Expect(got).To(HaveLen(1))
				Expect(got[0].DurationSec).To(BeNumerically(">=", 1))
				Expect(got[0].DurationSec).To(BeNumerically("<=", 3))
				Expect(launcher.Running()).To(BeEmpty())

				total, err := ledger.Total("mygame")
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(Equal(time.Duration(got[0].DurationSec) * time.Second))
			})

			It("should pass the bottle environment to wine", func() {
				_, err := launcher.Launch(context.Background(), domain.LaunchRequest{
					InstanceID:         "env",
					GameExecutablePath: crossover.GameExe("MyGame", "MyGame.exe"),
					ContainerPath:      crossover.Bottle("GOG"),
					RuntimeAppPath:     crossover.AppPath(),
				})
				Expect(err).NotTo(HaveOccurred())
				shutdown()

				data, err := os.ReadFile(envFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(strings.TrimSpace(string(data))).To(Equal(strings.Join([]string{
					crossover.GameExe("MyGame", "MyGame.exe"),
					"GOG",
					crossover.Bottle("GOG"),
					"zh_CN.UTF-8",
					"-all",
				}, "|")))
			})
		})

		Context("when two games run at once", func() {
			It("should never mix up their events", func() {
				for _, id := range []string{"first", "second"} {
					_, err := launcher.Launch(context.Background(), domain.LaunchRequest{
						InstanceID:         id,
						GameExecutablePath: crossover.GameExe("MyGame", "MyGame.exe"),
						ContainerPath:      crossover.Bottle("Steam"),
						RuntimeAppPath:     crossover.AppPath(),
					})
					Expect(err).NotTo(HaveOccurred())
				}
				Expect(launcher.Running()).To(HaveLen(2))

				shutdown()

				Expect(eventsFor("first")).To(HaveLen(1))
				Expect(eventsFor("second")).To(HaveLen(1))
			})
		})

		Context("when the executable is missing", func() {
			It("should fail before spawning anything", func() {
				_, err := launcher.Launch(context.Background(), domain.LaunchRequest{
					InstanceID:         "missing",
					GameExecutablePath: "~/Games/Unplugged/game.exe",
					ContainerPath:      crossover.Bottle("Steam"),
					RuntimeAppPath:     crossover.AppPath(),
				})
				Expect(err).To(MatchError(domain.ErrPathNotFound))
				Expect(err.Error()).To(ContainSubstring("external drive"))
				Expect(launcher.Running()).To(BeEmpty())

				shutdown()
				Expect(envFile).NotTo(BeAnExistingFile())
			})
		})

		Context("when the runtime app has no wine binary", func() {
			It("should blame the runtime", func() {
				_, err := launcher.Launch(context.Background(), domain.LaunchRequest{
					InstanceID:         "noruntime",
					GameExecutablePath: crossover.GameExe("MyGame", "MyGame.exe"),
					ContainerPath:      crossover.Bottle("Steam"),
					RuntimeAppPath:     filepath.Join(tmpDir, "Applications/Wine.app"),
				})

				var pnf *domain.PathNotFoundError
				Expect(err).To(BeAssignableToTypeOf(pnf))
				Expect(err.(*domain.PathNotFoundError).Kind).To(Equal(domain.PathKindRuntime))

				shutdown()
			})
		})
	})

	Describe("Stop", func() {
		It("should end a long running game and still report it", func() {
			Expect(os.Setenv("GAME_SECONDS", "60")).To(Succeed())
			DeferCleanup(os.Unsetenv, "GAME_SECONDS")

			_, err := launcher.Launch(context.Background(), domain.LaunchRequest{
				InstanceID:         "long",
				GameExecutablePath: crossover.GameExe("MyGame", "MyGame.exe"),
				ContainerPath:      crossover.Bottle("Steam"),
				RuntimeAppPath:     crossover.AppPath(),
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(envFile).Should(BeAnExistingFile())
			Expect(launcher.Stop("long")).To(Succeed())
			shutdown()

			got := eventsFor("long")
			Expect(got).To(HaveLen(1))
			Expect(got[0].DurationSec).To(BeNumerically("<", 60))
		})

		It("should reject unknown instances", func() {
			Expect(launcher.Stop("ghost")).To(MatchError(domain.ErrInstanceNotRunning))
			shutdown()
		})
	})
})
