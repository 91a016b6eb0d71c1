package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

const playtimeDBName = "playtime.db"

// PlaytimeLedger implements domain.PlaytimeStore using a SQLCipher
// encrypted SQLite database.
type PlaytimeLedger struct {
	db     *sql.DB
	dbPath string
	clock  clockwork.Clock
}

// NewPlaytimeLedger opens (or creates) the ledger database in dataDir.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewPlaytimeLedger(dataDir string, key []byte, clock clockwork.Clock) (*PlaytimeLedger, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	dbPath := filepath.Join(dataDir, playtimeDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open playtime database: %w", err)
	}

	// A wrong key only surfaces on first access
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to playtime database: %w", err)
	}

	ledger := &PlaytimeLedger{
		db:     db,
		dbPath: dbPath,
		clock:  clock,
	}

	if err := ledger.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ledger, nil
}

func (l *PlaytimeLedger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instance_id TEXT NOT NULL,
		duration_sec INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS sessions_instance ON sessions (instance_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record stores one completion event, stamped with the current time.
func (l *PlaytimeLedger) Record(event domain.CompletionEvent) error {
	_, err := l.db.Exec(`
		INSERT INTO sessions (instance_id, duration_sec, finished_at)
		VALUES (?, ?, ?)`,
		event.InstanceID, int64(event.DurationSec), l.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// Total returns the summed play time of an instance.
func (l *PlaytimeLedger) Total(instanceID string) (time.Duration, error) {
	var total int64
	err := l.db.QueryRow(`SELECT COALESCE(SUM(duration_sec), 0) FROM sessions WHERE instance_id = ?`,
		instanceID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return time.Duration(total) * time.Second, nil
}

// Sessions returns recorded sessions of an instance, newest first.
func (l *PlaytimeLedger) Sessions(instanceID string) ([]domain.PlaySession, error) {
	rows, err := l.db.Query(`
		SELECT duration_sec, finished_at FROM sessions
		WHERE instance_id = ?
		ORDER BY finished_at DESC, id DESC`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.PlaySession
	for rows.Next() {
		var duration, finished int64
		if err := rows.Scan(&duration, &finished); err != nil {
			return nil, err
		}
		sessions = append(sessions, domain.PlaySession{
			InstanceID:  instanceID,
			DurationSec: uint64(duration),
			FinishedAt:  time.Unix(finished, 0),
		})
	}
	return sessions, rows.Err()
}

// Path returns the database file path.
func (l *PlaytimeLedger) Path() string {
	return l.dbPath
}

// Close releases the database connection.
func (l *PlaytimeLedger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Ensure PlaytimeLedger implements domain.PlaytimeStore.
var _ domain.PlaytimeStore = (*PlaytimeLedger)(nil)
