package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	ledgerKeyFileName = ".playtime.key"
	ledgerKeySize     = 32 // SQLCipher raw key
)

// ErrLedgerKeyInvalid means the key file exists but does not hold a usable key.
var ErrLedgerKeyInvalid = errors.New("invalid playtime ledger key")

func ledgerKeyPath(dataDir string) string {
	return filepath.Join(dataDir, ledgerKeyFileName)
}

// loadLedgerKey reads the hex-encoded key kept next to the ledger.
// A missing file is reported with os.ErrNotExist.
func loadLedgerKey(dataDir string) ([]byte, error) {
	raw, err := os.ReadFile(ledgerKeyPath(dataDir))
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerKeyInvalid, err)
	}
	if len(key) != ledgerKeySize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrLedgerKeyInvalid, len(key), ledgerKeySize)
	}
	return key, nil
}

func newLedgerKey() ([]byte, error) {
	key := make([]byte, ledgerKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate ledger key: %w", err)
	}
	return key, nil
}

// storeLedgerKey writes the key owner-only. The rename keeps a crash from
// leaving a truncated key behind.
func storeLedgerKey(dataDir string, key []byte) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := ledgerKeyPath(dataDir) + ".tmp"
	if err := os.WriteFile(tmp, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return fmt.Errorf("failed to write ledger key: %w", err)
	}
	if err := os.Rename(tmp, ledgerKeyPath(dataDir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write ledger key: %w", err)
	}
	return nil
}

// OpenPlaytimeLedger opens the ledger in dataDir, creating its key on first use.
//
// Without its key the database can never be decrypted again. If the key file
// is gone while playtime.db is still there, the old database is moved to
// playtime.db.lost-<unix time> and a fresh ledger is started. A key file that
// exists but is corrupt is an error and nothing is moved.
func OpenPlaytimeLedger(dataDir string, clock clockwork.Clock, logger *zap.Logger) (*PlaytimeLedger, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	key, err := loadLedgerKey(dataDir)
	switch {
	case err == nil:
		return NewPlaytimeLedger(dataDir, key, clock)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to load ledger key: %w", err)
	}

	dbPath := filepath.Join(dataDir, playtimeDBName)
	if _, err := os.Stat(dbPath); err == nil {
		lost := fmt.Sprintf("%s.lost-%d", dbPath, clock.Now().Unix())
		if err := os.Rename(dbPath, lost); err != nil {
			return nil, fmt.Errorf("failed to set aside unreadable ledger: %w", err)
		}
		logger.Warn("ledger key missing, starting a new playtime ledger",
			zap.String("old_ledger", lost))
	}

	if key, err = newLedgerKey(); err != nil {
		return nil, err
	}
	if err := storeLedgerKey(dataDir, key); err != nil {
		return nil, err
	}
	return NewPlaytimeLedger(dataDir, key, clock)
}
