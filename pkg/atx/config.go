package atx

// DefaultMiotCommand is the smart-plug CLI invoked when none is configured
const DefaultMiotCommand = "mijiaAPI"

// KeyConfig binds one button (power or reset) to a driver.
//
// GPIO and USB relay keys use Device/Pin/ActiveLevel. Miot keys use
// Prop/Value for the press and, on the power key, OffProp/OffValue for the
// force-off.
type KeyConfig struct {
	Driver      DriverType  `yaml:"driver" json:"driver"`
	Device      string      `yaml:"device" json:"device"`
	Pin         uint32      `yaml:"pin" json:"pin"`
	ActiveLevel ActiveLevel `yaml:"active_level" json:"active_level"`
	Prop        string      `yaml:"prop" json:"prop"`
	Value       string      `yaml:"value" json:"value"`
	OffProp     string      `yaml:"off_prop" json:"off_prop"`
	OffValue    string      `yaml:"off_value" json:"off_value"`
}

// IsConfigured reports whether the key has the fields its driver needs
func (c KeyConfig) IsConfigured() bool {
	switch c.Driver {
	case DriverGpio, DriverUsbRelay:
		return c.Device != ""
	case DriverMiot:
		return c.Prop != ""
	default:
		return false
	}
}

// StatusConfig selects how the host power state is sensed
type StatusConfig struct {
	Driver   StatusDriverType `yaml:"driver" json:"driver"`
	GpioChip string           `yaml:"gpio_chip" json:"gpio_chip"`
	GpioPin  uint32           `yaml:"gpio_pin" json:"gpio_pin"`
	Inverted bool             `yaml:"inverted" json:"inverted"`
	Prop     string           `yaml:"prop" json:"prop"`
	OnValue  string           `yaml:"on_value" json:"on_value"`
	OffValue string           `yaml:"off_value" json:"off_value"`
}

// IsConfigured reports whether the status driver has the fields it needs
func (c StatusConfig) IsConfigured() bool {
	switch c.Driver {
	case StatusDriverLed:
		return c.GpioChip != ""
	case StatusDriverMiot:
		return c.Prop != ""
	default:
		return false
	}
}

// LedConfig returns the sensor settings derived from a Led status config
func (c StatusConfig) LedConfig() LedConfig {
	return LedConfig{
		Enabled:  c.Driver == StatusDriverLed,
		GpioChip: c.GpioChip,
		GpioPin:  c.GpioPin,
		Inverted: c.Inverted,
	}
}

// LedConfig is handed to the LED sensor factory
type LedConfig struct {
	Enabled  bool   `json:"enabled"`
	GpioChip string `json:"gpio_chip"`
	GpioPin  uint32 `json:"gpio_pin"`
	Inverted bool   `json:"inverted"`
}

func (c LedConfig) IsConfigured() bool {
	return c.Enabled && c.GpioChip != ""
}

// MiotConfig holds the smart-plug connection settings shared by every key
// and the status driver that use DriverMiot.
type MiotConfig struct {
	Did      string `yaml:"did" json:"did"`
	Command  string `yaml:"command" json:"command"`
	AuthPath string `yaml:"auth_path" json:"auth_path"`
}

// DefaultMiotConfig returns a config with the default command and no device
func DefaultMiotConfig() MiotConfig {
	return MiotConfig{Command: DefaultMiotCommand}
}

// IsConfigured reports whether a device ID is set
func (c MiotConfig) IsConfigured() bool {
	return c.Did != ""
}

// ControllerConfig is the full ATX configuration
type ControllerConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Power   KeyConfig    `yaml:"power" json:"power"`
	Reset   KeyConfig    `yaml:"reset" json:"reset"`
	Status  StatusConfig `yaml:"status" json:"status"`
	Miot    MiotConfig   `yaml:"miot" json:"miot"`
}

// DefaultControllerConfig returns a disabled configuration
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Miot: DefaultMiotConfig(),
	}
}

// NeedsMiot reports whether any key or the status driver uses the smart plug
func (c ControllerConfig) NeedsMiot() bool {
	return c.Power.Driver == DriverMiot ||
		c.Reset.Driver == DriverMiot ||
		c.Status.Driver == StatusDriverMiot
}
