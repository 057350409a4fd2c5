package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAddAndRetrieveProvisions(t *testing.T) {
	s := New(t.TempDir())

	record := ProvisionRecord{
		RunID:       "20261017T101500",
		Device:      "/dev/ttyUSB0",
		Timestamp:   time.Now(),
		Outcome:     "succeeded",
		Success:     true,
		Duration:    "41.2s",
		Baud:        115200,
		FirmwareDir: "/srv/fw/1.4.0",
		Verify:      true,
		Phases: []PhaseRecord{
			{Phase: "erase", Success: true, Duration: "3.1s"},
			{Phase: "flash", Success: true, Duration: "30s"},
		},
	}

	if err := s.AddProvision(record); err != nil {
		t.Fatalf("AddProvision failed: %v", err)
	}

	records, err := s.Provisions()
	if err != nil {
		t.Fatalf("Provisions failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Device != "/dev/ttyUSB0" || got.Outcome != "succeeded" || len(got.Phases) != 2 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestAddMultipleRecordsKeepsOrder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "history"))

	s.AddProvision(ProvisionRecord{Device: "COM3", Outcome: "succeeded", Success: true})
	s.AddProvision(ProvisionRecord{Device: "COM4", Outcome: "failed-at-erase", Error: "erase failed on COM4"})

	records, err := s.Provisions()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Device != "COM3" || records[1].Device != "COM4" {
		t.Errorf("records out of order: %+v", records)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), provisionsFile+".tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestEmptyStore(t *testing.T) {
	s := New(t.TempDir())

	records, err := s.Provisions()
	if err != nil {
		t.Fatalf("Provisions on empty store failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}
