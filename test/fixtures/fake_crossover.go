// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
)

// WineBinary is the wine path inside a CrossOver.app bundle.
const WineBinary = "Contents/SharedSupport/CrossOver/bin/wine"

// FakeCrossOver lays out a CrossOver install, bottles and a game library under HomeDir.
// The wine binary is a shell script, so "launching" a game runs the script.
type FakeCrossOver struct {
	HomeDir string
}

// NewFakeCrossOver creates a new fake CrossOver structure generator.
func NewFakeCrossOver(homeDir string) *FakeCrossOver {
	return &FakeCrossOver{HomeDir: homeDir}
}

// AppPath returns the fake CrossOver.app bundle.
func (f *FakeCrossOver) AppPath() string {
	return filepath.Join(f.HomeDir, "Applications/CrossOver.app")
}

// BottlesDir returns the bottles root.
func (f *FakeCrossOver) BottlesDir() string {
	return filepath.Join(f.HomeDir, "Library/Application Support/CrossOver/Bottles")
}

// LibraryDir returns the game library root.
func (f *FakeCrossOver) LibraryDir() string {
	return filepath.Join(f.HomeDir, "Games")
}

// Bottle returns the path of a named bottle.
func (f *FakeCrossOver) Bottle(name string) string {
	return filepath.Join(f.BottlesDir(), name)
}

// GameExe returns the path of an executable in the library.
func (f *FakeCrossOver) GameExe(game, exe string) string {
	return filepath.Join(f.LibraryDir(), game, exe)
}

// Create builds the structure. wineScript is the body of the fake wine binary;
// the game path arrives as $1 and the bottle environment as usual.
func (f *FakeCrossOver) Create(wineScript string) error {
	wine := filepath.Join(f.AppPath(), WineBinary)
	if err := os.MkdirAll(filepath.Dir(wine), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(wine, []byte("#!/bin/sh\n"+wineScript+"\n"), 0755); err != nil {
		return err
	}

	for _, bottle := range []string{"Steam", "GOG"} {
		if err := os.MkdirAll(filepath.Join(f.Bottle(bottle), "drive_c"), 0755); err != nil {
			return err
		}
	}
	// Bottle roots hold config files next to the bottle directories
	if err := os.WriteFile(filepath.Join(f.BottlesDir(), "default.conf"), []byte("[Bottle]\n"), 0644); err != nil {
		return err
	}

	games := []string{
		"MyGame/MyGame.exe",
		"MyGame/Launcher.exe",
		"MyGame/redist/vcredist.exe",
		"Hades/x64/Hades.exe",
		"Manuals/readme.txt",
	}
	for _, g := range games {
		path := filepath.Join(f.LibraryDir(), g)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte("MZ"), 0644); err != nil {
			return err
		}
	}

	return nil
}

// Exists checks if the fake install exists.
func (f *FakeCrossOver) Exists() bool {
	_, err := os.Stat(filepath.Join(f.AppPath(), WineBinary))
	return err == nil
}

// Cleanup removes everything Create made.
func (f *FakeCrossOver) Cleanup() error {
	for _, p := range []string{
		filepath.Join(f.HomeDir, "Applications"),
		filepath.Join(f.HomeDir, "Library"),
		f.LibraryDir(),
	} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}
