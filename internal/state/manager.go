// Package state persists the transfer journal: one row per transfer attempt,
// keyed by device. Journaling is optional and off by default; a failed
// journal write never fails the transfer it records.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/Devicesync/internal/domain"
)

// Manager handles journal persistence
type Manager struct {
	db *sql.DB
}

// TransferRecord represents a single transfer attempt
type TransferRecord struct {
	ID          int64
	Device      string
	Direction   string
	Source      string
	Destination string
	StartTime   time.Time
	EndTime     time.Time
	Exists      bool
	Transferred bool
	Verified    bool
	Bytes       int64
	Error       string
}

// NewRecord seeds a record from the transfer parameters; the caller fills in
// the outcome before saving
func NewRecord(device string, direction domain.Direction, src, dst string) TransferRecord {
	return TransferRecord{
		Device:      device,
		Direction:   string(direction),
		Source:      src,
		Destination: dst,
		StartTime:   time.Now(),
	}
}

// SetOutcome copies the transfer result into the record
func (r *TransferRecord) SetOutcome(outcome domain.TransferOutcome, err error) {
	r.EndTime = time.Now()
	r.Exists = outcome.Exists
	r.Transferred = outcome.Transferred
	r.Verified = outcome.Verified
	if err != nil {
		r.Error = err.Error()
	}
}

// NewManager creates a new journal manager
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "devicesync.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	// Initialize schema
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transfers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		direction TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		file_exists INTEGER DEFAULT 0,
		transferred INTEGER DEFAULT 0,
		verified INTEGER DEFAULT 0,
		bytes INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_device_time ON transfers(device, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_transfers_verified ON transfers(verified);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveTransfer records a transfer attempt
func (m *Manager) SaveTransfer(record TransferRecord) error {
	if !domain.Direction(record.Direction).IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidDirection, record.Direction)
	}

	query := `
		INSERT INTO transfers (device, direction, source, destination, start_time, end_time,
			file_exists, transferred, verified, bytes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.Device,
		record.Direction,
		record.Source,
		record.Destination,
		record.StartTime,
		record.EndTime,
		record.Exists,
		record.Transferred,
		record.Verified,
		record.Bytes,
		record.Error,
	)

	if err != nil {
		return fmt.Errorf("failed to save transfer record: %w", err)
	}

	return nil
}

const selectColumns = `
	SELECT id, device, direction, source, destination, start_time, end_time,
		file_exists, transferred, verified, bytes, error
	FROM transfers
`

// GetHistory retrieves transfer history for a device
func (m *Manager) GetHistory(device string, limit int) ([]TransferRecord, error) {
	// Validate limit
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := selectColumns + `
		WHERE device = ?
		ORDER BY start_time DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, device, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetLastVerified retrieves the most recent verified transfer for a device
func (m *Manager) GetLastVerified(device string) (*TransferRecord, error) {
	query := selectColumns + `
		WHERE device = ? AND verified = 1
		ORDER BY start_time DESC
		LIMIT 1
	`

	record, err := scanRecord(m.db.QueryRow(query, device))
	if err == sql.ErrNoRows {
		return nil, nil // No verified transfer found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last verified transfer: %w", err)
	}

	return record, nil
}

// GetAllHistory retrieves transfer history across all devices
func (m *Manager) GetAllHistory(limit int) ([]TransferRecord, error) {
	// Validate limit
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := selectColumns + `
		ORDER BY start_time DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]TransferRecord, error) {
	var records []TransferRecord
	for rows.Next() {
		var record TransferRecord
		err := rows.Scan(
			&record.ID,
			&record.Device,
			&record.Direction,
			&record.Source,
			&record.Destination,
			&record.StartTime,
			&record.EndTime,
			&record.Exists,
			&record.Transferred,
			&record.Verified,
			&record.Bytes,
			&record.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

func scanRecord(row *sql.Row) (*TransferRecord, error) {
	var record TransferRecord
	err := row.Scan(
		&record.ID,
		&record.Device,
		&record.Direction,
		&record.Source,
		&record.Destination,
		&record.StartTime,
		&record.EndTime,
		&record.Exists,
		&record.Transferred,
		&record.Verified,
		&record.Bytes,
		&record.Error,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
