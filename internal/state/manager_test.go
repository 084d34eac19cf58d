package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ning0612/Devicesync/internal/domain"
)

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if manager.db == nil {
		t.Error("Database connection is nil")
	}

	// Verify database file was created
	dbPath := filepath.Join(tmpDir, "devicesync.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewManager_EmptyDir(t *testing.T) {
	_, err := NewManager("")
	if err == nil {
		t.Error("Expected error for empty directory, got nil")
	}
}

func TestSaveAndGetTransfer(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	record := NewRecord("edge-1", domain.DirectionPut, "img.bin", "img.bin")
	record.StartTime = time.Now().Add(-10 * time.Minute)
	record.SetOutcome(domain.TransferOutcome{Exists: true, Transferred: true, Verified: true}, nil)
	record.Bytes = 1024

	if err := manager.SaveTransfer(record); err != nil {
		t.Fatalf("Failed to save transfer: %v", err)
	}

	// Retrieve history
	history, err := manager.GetHistory("edge-1", 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}

	if len(history) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history))
	}

	retrieved := history[0]
	if retrieved.Device != record.Device {
		t.Errorf("Expected device %s, got %s", record.Device, retrieved.Device)
	}
	if retrieved.Direction != "put" {
		t.Errorf("Expected direction put, got %s", retrieved.Direction)
	}
	if !retrieved.Exists || !retrieved.Transferred || !retrieved.Verified {
		t.Errorf("Outcome flags lost on round-trip: %+v", retrieved)
	}
	if retrieved.Bytes != record.Bytes {
		t.Errorf("Expected bytes %d, got %d", record.Bytes, retrieved.Bytes)
	}
}

func TestSetOutcomeRecordsError(t *testing.T) {
	record := NewRecord("edge-1", domain.DirectionGet, "img.bin", "img.bin")
	record.SetOutcome(domain.TransferOutcome{}, errors.New("connection reset"))

	if record.Error != "connection reset" {
		t.Errorf("Expected error text recorded, got %q", record.Error)
	}
	if record.EndTime.IsZero() {
		t.Error("EndTime not stamped")
	}
}

func TestGetLastVerified(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// Save records with different outcomes
	records := []TransferRecord{
		{
			Device: "edge-1", Direction: "put", Source: "img.bin", Destination: "img.bin",
			StartTime: time.Now().Add(-30 * time.Minute), EndTime: time.Now().Add(-29 * time.Minute),
			Exists: true, Transferred: true, Verified: true, Bytes: 512,
		},
		{
			Device: "edge-1", Direction: "put", Source: "img.bin", Destination: "img.bin",
			StartTime: time.Now().Add(-20 * time.Minute), EndTime: time.Now().Add(-19 * time.Minute),
			Error: "network error",
		},
		{
			Device: "edge-1", Direction: "put", Source: "img2.bin", Destination: "img2.bin",
			StartTime: time.Now().Add(-10 * time.Minute), EndTime: time.Now().Add(-9 * time.Minute),
			Exists: true, Transferred: true, Verified: true, Bytes: 1024,
		},
	}

	for _, record := range records {
		if err := manager.SaveTransfer(record); err != nil {
			t.Fatalf("Failed to save transfer: %v", err)
		}
	}

	lastVerified, err := manager.GetLastVerified("edge-1")
	if err != nil {
		t.Fatalf("Failed to get last verified: %v", err)
	}

	if lastVerified == nil {
		t.Fatal("Expected last verified, got nil")
	}
	if lastVerified.Source != "img2.bin" {
		t.Errorf("Expected most recent verified transfer, got source %s", lastVerified.Source)
	}
}

func TestGetLastVerified_None(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// Save only a failed record
	record := TransferRecord{
		Device: "edge-1", Direction: "put", Source: "img.bin", Destination: "img.bin",
		StartTime: time.Now().Add(-10 * time.Minute), EndTime: time.Now(),
		Error: "test error",
	}

	if err := manager.SaveTransfer(record); err != nil {
		t.Fatalf("Failed to save transfer: %v", err)
	}

	lastVerified, err := manager.GetLastVerified("edge-1")
	if err != nil {
		t.Fatalf("Failed to get last verified: %v", err)
	}

	if lastVerified != nil {
		t.Error("Expected nil for last verified, got a record")
	}
}

func TestGetAllHistory(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// Save records for multiple devices
	records := []TransferRecord{
		{Device: "edge-1", Direction: "put", Source: "a", Destination: "a", StartTime: time.Now().Add(-30 * time.Minute), EndTime: time.Now().Add(-29 * time.Minute), Verified: true},
		{Device: "edge-2", Direction: "get", Source: "b", Destination: "b", StartTime: time.Now().Add(-20 * time.Minute), EndTime: time.Now().Add(-19 * time.Minute), Verified: true},
		{Device: "edge-1", Direction: "put", Source: "c", Destination: "c", StartTime: time.Now().Add(-10 * time.Minute), EndTime: time.Now().Add(-9 * time.Minute), Error: "error"},
	}

	for _, record := range records {
		if err := manager.SaveTransfer(record); err != nil {
			t.Fatalf("Failed to save transfer: %v", err)
		}
	}

	allHistory, err := manager.GetAllHistory(100)
	if err != nil {
		t.Fatalf("Failed to get all history: %v", err)
	}

	if len(allHistory) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(allHistory))
	}

	// Verify ordering (should be DESC by start_time)
	if allHistory[0].Device != "edge-1" || allHistory[0].Error != "error" {
		t.Error("Expected most recent record to be the failed edge-1 transfer")
	}
}

func TestGetHistory_Limit(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// Save 5 records
	for i := 0; i < 5; i++ {
		record := TransferRecord{
			Device: "edge-1", Direction: "put", Source: "img.bin", Destination: "img.bin",
			StartTime: time.Now().Add(time.Duration(-i*10) * time.Minute),
			EndTime:   time.Now().Add(time.Duration(-i*10+1) * time.Minute),
			Bytes:     int64(i * 100),
		}
		if err := manager.SaveTransfer(record); err != nil {
			t.Fatalf("Failed to save transfer: %v", err)
		}
	}

	// Get only 3 most recent
	history, err := manager.GetHistory("edge-1", 3)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(history))
	}

	// Verify we got the most recent ones
	if history[0].Bytes != 0 {
		t.Errorf("Expected most recent record with 0 bytes, got %d", history[0].Bytes)
	}
}

// Test validation: invalid direction
func TestSaveTransfer_InvalidDirection(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	record := TransferRecord{
		Device: "edge-1", Direction: "sideways", Source: "a", Destination: "a",
		StartTime: time.Now(), EndTime: time.Now(),
	}

	if err := manager.SaveTransfer(record); !errors.Is(err, domain.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
}

// Test validation: invalid limit in GetHistory
func TestGetHistory_InvalidLimit(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	_, err = manager.GetHistory("edge-1", 0)
	if err == nil {
		t.Error("Expected error for limit=0, got nil")
	}

	_, err = manager.GetHistory("edge-1", -1)
	if err == nil {
		t.Error("Expected error for limit=-1, got nil")
	}
}

// Test validation: invalid limit in GetAllHistory
func TestGetAllHistory_InvalidLimit(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	_, err = manager.GetAllHistory(0)
	if err == nil {
		t.Error("Expected error for limit=0, got nil")
	}

	_, err = manager.GetAllHistory(-1)
	if err == nil {
		t.Error("Expected error for limit=-1, got nil")
	}
}
