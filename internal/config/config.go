// Package config reads objdump2itb settings from the environment.
package config

import (
	"os"
	"strings"
)

// Environment variables consulted by FromEnv.
const (
	EnvLogLevel  = "OBJDUMP2ITB_LOG_LEVEL"
	EnvLogPrefix = "OBJDUMP2ITB_LOG_PREFIX"
	EnvLogToFile = "OBJDUMP2ITB_LOG_TO_FILE"
	EnvNoColor   = "OBJDUMP2ITB_NO_COLOR"
	EnvProfile   = "OBJDUMP2ITB_PROFILE"
)

// DefaultLogPrefix is used when EnvLogPrefix is unset.
const DefaultLogPrefix = "objdump2itb "

// Config represents configuration for the objdump2itb tool
type Config struct {
	Debug     bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	LogLevel  string `json:"logLevel" jsonschema:"title=Log Level,description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	LogPrefix string `json:"logPrefix" jsonschema:"title=Log Prefix,description=Prefix for log messages"`
	LogToFile bool   `json:"logToFile" jsonschema:"title=Log To File,description=Write logs to a timestamped file instead of stderr"`
	NoColor   bool   `json:"noColor" jsonschema:"title=No Color,description=Disable syntax highlighting in show output"`
	Profile   bool   `json:"profile" jsonschema:"title=Profile,description=Serve pprof on localhost:6060"`
}

// FromEnv builds a Config from the OBJDUMP2ITB_* environment variables.
func FromEnv() Config {
	cfg := Config{
		LogLevel:  strings.ToLower(os.Getenv(EnvLogLevel)),
		LogPrefix: os.Getenv(EnvLogPrefix),
		LogToFile: os.Getenv(EnvLogToFile) == "1",
		NoColor:   os.Getenv(EnvNoColor) != "",
		Profile:   os.Getenv(EnvProfile) != "",
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogPrefix == "" {
		cfg.LogPrefix = DefaultLogPrefix
	}
	cfg.Debug = cfg.LogLevel == "debug"
	return cfg
}

// WithDebug returns a copy with debug logging forced on when debug is set.
func (c Config) WithDebug(debug bool) Config {
	if debug {
		c.Debug = true
		c.LogLevel = "debug"
	}
	return c
}
