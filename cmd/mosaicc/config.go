package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for the client binary. One value is
// built at startup and handed into the library; nothing reads ambient
// state after that.
type Config struct {
	ServerURL   string `yaml:"server_url"`
	DisplayID   string `yaml:"display_id"`
	DisplayName string `yaml:"display_name"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Brightness is the startup level, 0-255. Servers may override it
	// per payload.
	Brightness int `yaml:"brightness"`

	ConnectTimeoutSecs int `yaml:"connect_timeout_secs"`
	FetchTimeoutSecs   int `yaml:"fetch_timeout_secs"`
	RetryDelaySecs     int `yaml:"retry_delay_secs"`
	MaxRetryAttempts   int `yaml:"max_retry_attempts"`

	StatusAddr string `yaml:"status_addr"`

	Matrix MatrixConfig `yaml:"matrix"`
}

// MatrixConfig configures the HUB75 driver.
type MatrixConfig struct {
	HardwareMapping        string `yaml:"hardware_mapping"`
	ChainLength            int    `yaml:"chain_length"`
	Parallel               int    `yaml:"parallel"`
	PWMBits                int    `yaml:"pwm_bits"`
	DisableHardwarePulsing bool   `yaml:"disable_hardware_pulsing"`
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.validate()
}

func defaultConfig() Config {
	return Config{
		Width:              64,
		Height:             32,
		Brightness:         200,
		ConnectTimeoutSecs: 30,
		FetchTimeoutSecs:   10,
		RetryDelaySecs:     2,
		MaxRetryAttempts:   3,
		StatusAddr:         "127.0.0.1:9003",
		Matrix: MatrixConfig{
			HardwareMapping: "regular",
			ChainLength:     1,
			Parallel:        1,
			PWMBits:         11,
		},
	}
}

func (c Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid display dimensions %dx%d", c.Width, c.Height)
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return fmt.Errorf("brightness %d out of range 0-255", c.Brightness)
	}
	if c.Matrix.ChainLength < 1 || c.Matrix.Parallel < 1 {
		return fmt.Errorf("invalid matrix chain geometry")
	}
	return nil
}

func (c Config) connectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSecs) * time.Second
}

func (c Config) fetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

func (c Config) retryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}
