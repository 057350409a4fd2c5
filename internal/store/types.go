package store

import "time"

// PhaseRecord captures one esptool invocation.
type PhaseRecord struct {
	Phase    string `json:"phase"`
	Success  bool   `json:"success"`
	Duration string `json:"duration"`
}

// ProvisionRecord captures the outcome of provisioning one device.
type ProvisionRecord struct {
	RunID       string        `json:"run_id"`
	Device      string        `json:"device"`
	Timestamp   time.Time     `json:"timestamp"`
	Outcome     string        `json:"outcome"`
	Success     bool          `json:"success"`
	Duration    string        `json:"duration"`
	Baud        int           `json:"baud"`
	FirmwareDir string        `json:"firmware_dir,omitempty"`
	EraseOnly   bool          `json:"erase_only,omitempty"`
	SkipErase   bool          `json:"skip_erase,omitempty"`
	Verify      bool          `json:"verify,omitempty"`
	Phases      []PhaseRecord `json:"phases,omitempty"`
	Error       string        `json:"error,omitempty"`
}
