package runtime

import (
	"path/filepath"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// CrossOver environment contract. Names and values must match what the
// bundled wine expects or bottles misbehave.
const (
	EnvBottle     = "CX_BOTTLE"
	EnvWinePrefix = "WINEPREFIX"
	EnvLocale     = "LC_ALL"
	EnvWineDebug  = "WINEDEBUG"

	Locale        = "zh_CN.UTF-8"
	WineDebugMute = "-all"
)

// crossOverWine is the wine binary relative to the CrossOver.app bundle.
const crossOverWine = "Contents/SharedSupport/CrossOver/bin/wine"

// CrossOver implements Runtime for CodeWeavers CrossOver on macOS.
type CrossOver struct{}

// NewCrossOver creates the CrossOver runtime.
func NewCrossOver() *CrossOver {
	return &CrossOver{}
}

func (c *CrossOver) ID() string {
	return "crossover"
}

func (c *CrossOver) Name() string {
	return "CrossOver"
}

// BinaryPath returns <appPath>/Contents/SharedSupport/CrossOver/bin/wine.
func (c *CrossOver) BinaryPath(appPath string) string {
	return filepath.Join(appPath, crossOverWine)
}

// Environment selects the bottle, pins the locale and silences wine debug output.
func (c *CrossOver) Environment(lc domain.LaunchContext) []EnvVar {
	return []EnvVar{
		{Key: EnvBottle, Value: lc.ContainerName},
		{Key: EnvWinePrefix, Value: lc.ContainerPath},
		{Key: EnvLocale, Value: Locale},
		{Key: EnvWineDebug, Value: WineDebugMute},
	}
}

// Ensure CrossOver implements Runtime.
var _ Runtime = (*CrossOver)(nil)
