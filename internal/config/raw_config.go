package config

import "time"

// RawConfig represents unparsed YAML structure
type RawConfig struct {
	Redis    RawRedisConfig    `yaml:"redis"`
	Export   RawExportConfig   `yaml:"export"`
	Settings RawSettingsConfig `yaml:"settings"`
}

// RawRedisConfig holds the target server and its credentials
type RawRedisConfig struct {
	Addr     string        `yaml:"addr"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}
