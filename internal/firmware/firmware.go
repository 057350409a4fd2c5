package firmware

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names expected inside a firmware directory.
const (
	BootloaderFile  = "bootloader.bin"
	PartitionsFile  = "partitions.bin"
	ApplicationFile = "firmware.bin"
)

// Flash offsets for each artifact on an ESP32.
const (
	BootloaderOffset  uint32 = 0x1000
	PartitionsOffset  uint32 = 0x8000
	ApplicationOffset uint32 = 0x10000
)

// Segment is one artifact and the flash address it is written to.
type Segment struct {
	Name   string
	Offset uint32
	Path   string
	Size   int64
}

// OffsetHex renders the offset the way esptool expects it.
func (s Segment) OffsetHex() string {
	return fmt.Sprintf("0x%x", s.Offset)
}

// Set is a validated firmware directory.
type Set struct {
	Dir      string
	Segments []Segment // bootloader, partition table, application
}

var layout = []struct {
	name   string
	offset uint32
}{
	{BootloaderFile, BootloaderOffset},
	{PartitionsFile, PartitionsOffset},
	{ApplicationFile, ApplicationOffset},
}

// ErrNoDirectory is returned when no firmware directory was given.
var ErrNoDirectory = errors.New("firmware directory not specified")

// DirectoryError reports a firmware directory that is missing or not a directory.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("firmware directory %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("firmware directory %s: not a directory", e.Dir)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// MissingArtifactError reports an artifact that is absent or unreadable.
type MissingArtifactError struct {
	Name string
	Dir  string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found in %s: %v", e.Name, e.Dir, e.Err)
}

func (e *MissingArtifactError) Unwrap() error { return e.Err }

// Load checks that dir holds all three artifacts as readable regular files
// and records their sizes. Nothing is parsed.
func Load(dir string) (*Set, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Dir: dir}
	}

	set := &Set{Dir: dir}
	for _, l := range layout {
		path := filepath.Join(dir, l.name)
		size, err := checkReadable(path)
		if err != nil {
			return nil, &MissingArtifactError{Name: l.name, Dir: dir, Err: err}
		}
		set.Segments = append(set.Segments, Segment{
			Name:   l.name,
			Offset: l.offset,
			Path:   path,
			Size:   size,
		})
	}
	return set, nil
}

func checkReadable(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, errors.New("not a regular file")
	}
	return info.Size(), nil
}

// OffsetArgs returns the offset/path pairs in flash order.
func (s *Set) OffsetArgs() []string {
	args := make([]string, 0, 2*len(s.Segments))
	for _, seg := range s.Segments {
		args = append(args, seg.OffsetHex(), seg.Path)
	}
	return args
}

// Application returns the application image segment.
func (s *Set) Application() Segment {
	return s.Segments[len(s.Segments)-1]
}
