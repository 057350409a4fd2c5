package discovery

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo holds details about a serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// listFunc matches enumerator.GetDetailedPortsList so tests can stub it.
type listFunc func() ([]*enumerator.PortDetails, error)

// ListPorts returns every serial port the OS reports, with USB metadata
// where available.
func ListPorts() ([]PortInfo, error) {
	return listPorts(enumerator.GetDetailedPortsList)
}

func listPorts(list listFunc) ([]PortInfo, error) {
	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	result := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Enumerator asks the OS port-listing facility for serial ports. It is the
// Windows strategy, where COM ports have no filesystem node to glob.
type Enumerator struct {
	list listFunc
}

// NewEnumerator returns an Enumerator backed by go.bug.st/serial.
func NewEnumerator() *Enumerator {
	return &Enumerator{list: enumerator.GetDetailedPortsList}
}

func (e *Enumerator) Name() string { return "windows" }

// Discover returns every reported port name, sorted.
func (e *Enumerator) Discover() ([]Device, error) {
	ports, err := listPorts(e.list)
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(ports))
	for _, p := range ports {
		devices = append(devices, Device(p.Name))
	}
	return devices, nil
}
