package esptool

import (
	"strconv"

	"github.com/buckleypaul/espfleet/internal/firmware"
)

// Fixed esptool parameters for ESP32 targets.
const (
	Chip        = "esp32"
	BeforeReset = "default_reset"
	AfterReset  = "hard_reset"
	FlashMode   = "dio"
	FlashFreq   = "40m"
	FlashSize   = "detect"
)

// Operation names understood by esptool.
const (
	OpEraseFlash  = "erase_flash"
	OpWriteFlash  = "write_flash"
	OpVerifyFlash = "verify_flash"
)

func connArgs(port string, baud int) []string {
	return []string{"--chip", Chip, "--port", port, "--baud", strconv.Itoa(baud)}
}

// EraseFlashArgs builds `erase_flash` for port.
func EraseFlashArgs(port string, baud int) []string {
	return append(connArgs(port, baud), OpEraseFlash)
}

// WriteFlashArgs builds a compressed `write_flash` of every segment in set.
func WriteFlashArgs(port string, baud int, set *firmware.Set) []string {
	args := connArgs(port, baud)
	args = append(args,
		"--before", BeforeReset,
		"--after", AfterReset,
		OpWriteFlash,
		"-z",
		"--flash_mode", FlashMode,
		"--flash_freq", FlashFreq,
		"--flash_size", FlashSize,
	)
	return append(args, set.OffsetArgs()...)
}

// VerifyFlashArgs builds `verify_flash` against the same segments.
func VerifyFlashArgs(port string, baud int, set *firmware.Set) []string {
	args := append(connArgs(port, baud), OpVerifyFlash)
	return append(args, set.OffsetArgs()...)
}
