// Package atx defines the data model shared by the ATX power controller, its
// smart-plug backend and the HTTP surface: driver selectors, per-key and
// status configuration, power status and the state snapshot.
package atx

import (
	"fmt"
	"strings"
)

// DriverType selects the backend that performs a key action
type DriverType int

const (
	// DriverNone means the key is not bound to any hardware
	DriverNone DriverType = iota
	// DriverGpio pulses a GPIO line through the Linux character device
	DriverGpio
	// DriverUsbRelay pulses a channel of a USB HID relay module
	DriverUsbRelay
	// DriverMiot sets a property on a smart plug through the external tool
	DriverMiot
)

var driverTypeNames = map[DriverType]string{
	DriverNone:     "none",
	DriverGpio:     "gpio",
	DriverUsbRelay: "usbrelay",
	DriverMiot:     "miot",
}

func (d DriverType) String() string {
	if name, ok := driverTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DriverType(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler
func (d DriverType) MarshalText() ([]byte, error) {
	name, ok := driverTypeNames[d]
	if !ok {
		return nil, fmt.Errorf("invalid driver type %d", int(d))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DriverType) UnmarshalText(text []byte) error {
	v, err := lookupName(driverTypeNames, text, "driver type")
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// StatusDriverType selects how the host power state is sensed
type StatusDriverType int

const (
	StatusDriverNone StatusDriverType = iota
	StatusDriverLed
	StatusDriverMiot
)

var statusDriverTypeNames = map[StatusDriverType]string{
	StatusDriverNone: "none",
	StatusDriverLed:  "led",
	StatusDriverMiot: "miot",
}

func (d StatusDriverType) String() string {
	if name, ok := statusDriverTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("StatusDriverType(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler
func (d StatusDriverType) MarshalText() ([]byte, error) {
	name, ok := statusDriverTypeNames[d]
	if !ok {
		return nil, fmt.Errorf("invalid status driver type %d", int(d))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *StatusDriverType) UnmarshalText(text []byte) error {
	v, err := lookupName(statusDriverTypeNames, text, "status driver type")
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ActiveLevel is the electrical polarity of a GPIO line. Only executors
// interpret it.
type ActiveLevel int

const (
	ActiveHigh ActiveLevel = iota
	ActiveLow
)

var activeLevelNames = map[ActiveLevel]string{
	ActiveHigh: "high",
	ActiveLow:  "low",
}

func (l ActiveLevel) String() string {
	if name, ok := activeLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("ActiveLevel(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler
func (l ActiveLevel) MarshalText() ([]byte, error) {
	name, ok := activeLevelNames[l]
	if !ok {
		return nil, fmt.Errorf("invalid active level %d", int(l))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *ActiveLevel) UnmarshalText(text []byte) error {
	v, err := lookupName(activeLevelNames, text, "active level")
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// PowerStatus is the sensed power state of the managed host. The zero value
// is PowerUnknown.
type PowerStatus int

const (
	// PowerUnknown covers both "no sensing configured" and "sensing failed"
	PowerUnknown PowerStatus = iota
	PowerOn
	PowerOff
)

var powerStatusNames = map[PowerStatus]string{
	PowerUnknown: "unknown",
	PowerOn:      "on",
	PowerOff:     "off",
}

func (s PowerStatus) String() string {
	if name, ok := powerStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PowerStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s PowerStatus) MarshalText() ([]byte, error) {
	name, ok := powerStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid power status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *PowerStatus) UnmarshalText(text []byte) error {
	v, err := lookupName(powerStatusNames, text, "power status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Action is a button action requested through the API
type Action string

const (
	// ActionShort is a short press of the power button (turn on or graceful shutdown)
	ActionShort Action = "short"
	// ActionLong is a long press of the power button (force off)
	ActionLong Action = "long"
	// ActionReset is a press of the reset button
	ActionReset Action = "reset"
)

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	switch a {
	case ActionShort, ActionLong, ActionReset:
		return true
	}
	return false
}

// State is a point-in-time snapshot of the controller. It is recomputed on
// every query.
type State struct {
	Available       bool        `json:"available"`
	PowerConfigured bool        `json:"power_configured"`
	ResetConfigured bool        `json:"reset_configured"`
	PowerStatus     PowerStatus `json:"power_status"`
	StatusSupported bool        `json:"status_supported"`
}

// Devices lists candidate device paths found on the host
type Devices struct {
	GpioChips []string `json:"gpio_chips"`
	UsbRelays []string `json:"usb_relays"`
}

func lookupName[T comparable](names map[T]string, text []byte, kind string) (T, error) {
	var zero T
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "" {
		// every enum's zero value is its default
		return zero, nil
	}
	for v, name := range names {
		if name == s {
			return v, nil
		}
	}
	return zero, fmt.Errorf("unknown %s %q", kind, string(text))
}
