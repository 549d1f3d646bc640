package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/qsync/internal/shared"
)

// Transport is the streaming file channel to the remote side.
type Transport interface {
	// Pull reads the whole file at remotePath.
	Pull(ctx context.Context, remotePath string) ([]byte, error)
	// Push replaces the file at remotePath with data.
	Push(ctx context.Context, data []byte, remotePath string) error
	// List returns the entry names in remoteDir. A missing directory lists as empty.
	List(ctx context.Context, remoteDir string) ([]string, error)
	// Remove deletes remotePath. Removing a missing file succeeds.
	Remove(ctx context.Context, remotePath string) error
	// Close releases the channel. Further calls fail with [shared.ErrSessionClosed].
	Close() error
}

// Connector opens a [Transport] for a device.
type Connector interface {
	Open(ctx context.Context, d Device) (Transport, error)
}

// States reported by adb.
const (
	StateDevice       = "device"
	StateUnauthorized = "unauthorized"
	StateOffline      = "offline"
)

// Device is one entry of `adb devices -l`.
type Device struct {
	Serial  string
	State   string
	Model   string
	Product string
}

// Ready reports whether adb can transfer files to the device.
func (d Device) Ready() bool {
	return d.State == StateDevice
}

// Label is the name shown when choosing between devices.
func (d Device) Label() string {
	if d.Model != "" {
		return fmt.Sprintf("%s (%s)", d.Serial, strings.ReplaceAll(d.Model, "_", " "))
	}
	return d.Serial
}

// CheckReady returns [shared.ErrDeviceNotReady] unless the device is ready.
func CheckReady(d Device) error {
	if d.Ready() {
		return nil
	}
	return fmt.Errorf("%w: %s is %s", shared.ErrDeviceNotReady, d.Serial, d.State)
}

// ParseDevices parses the output of `adb devices -l`.
func ParseDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		d := Device{Serial: fields[0], State: fields[1]}
		for _, field := range fields[2:] {
			key, value, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				d.Model = value
			case "product":
				d.Product = value
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// Choose picks the device to sync with.
//
// An explicit serial wins. A single device is used directly. Otherwise pick is asked to
// choose among the device labels.
func Choose(devices []Device, serial string, pick func(labels []string) (int, error)) (Device, error) {
	if len(devices) == 0 {
		return Device{}, shared.ErrNoDevices
	}

	if serial != "" {
		for _, d := range devices {
			if d.Serial == serial {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: device %s is not connected", shared.ErrNoDevices, serial)
	}

	if len(devices) == 1 {
		return devices[0], nil
	}

	labels := make([]string, len(devices))
	for i, d := range devices {
		labels[i] = d.Label()
	}
	idx, err := pick(labels)
	if err != nil {
		return Device{}, err
	}
	if idx < 0 || idx >= len(devices) {
		return Device{}, fmt.Errorf("%w: device choice %d", shared.ErrInvalidInput, idx)
	}
	return devices[idx], nil
}
