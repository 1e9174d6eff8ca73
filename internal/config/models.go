package config

// Config represents the entire user configuration file.
// It holds defaults for command-line flags; explicit flags always win.
type Config struct {
	Version     int     `yaml:"version"`
	Serial      *Serial `yaml:"serial,omitempty"`
	Output      *Output `yaml:"output,omitempty"`
	LayoutsFile string  `yaml:"layouts_file,omitempty"` // Extra layout catalog merged over the built-in one
}

// Serial holds the console connection defaults.
type Serial struct {
	Port     string `yaml:"port"`      // e.g. /dev/ttyUSB0 or COM3
	BaudRate int    `yaml:"baud_rate"` // The bootloader console runs at 57600
}

// Output holds filesystem defaults.
type Output struct {
	Dir string `yaml:"dir"` // Directory parts are unpacked into and packed from
}

// Default values
const (
	DefaultPort      = "/dev/ttyUSB0"
	DefaultBaudRate  = 57600
	DefaultOutputDir = "extracted"
)

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Serial: &Serial{
			Port:     DefaultPort,
			BaudRate: DefaultBaudRate,
		},
		Output: &Output{
			Dir: DefaultOutputDir,
		},
	}
}

// applyDefaults fills sections missing from a loaded file.
func (c *Config) applyDefaults() {
	defaults := NewConfig()
	if c.Serial == nil {
		c.Serial = defaults.Serial
	}
	if c.Serial.Port == "" {
		c.Serial.Port = DefaultPort
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = DefaultBaudRate
	}
	if c.Output == nil {
		c.Output = defaults.Output
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
}
