package log

import (
	"io"
	"sync"
)

const (
	timestampFormat = " 02/01/2006 15:04:05 "
	spacer          = " | "
	// DefaultMaxFileSize for logger rotation file, in megabytes
	DefaultMaxFileSize = 100
	// DefaultMaxBackups is the number of rotated log files kept on disk
	DefaultMaxBackups = 3
)

var (
	logger = Logger{}
	// globalLogConfig holds global configuration options for logger
	globalLogConfig = GenDefaultSettings()
	// globalLogFile is the file writer used by sub loggers with a "file" output
	globalLogFile io.Writer

	// mu guards logger settings and sub logger outputs
	mu = &sync.RWMutex{}
	// writeMu serialises writes so lines from concurrent runs never interleave
	writeMu = &sync.Mutex{}
)

// Config holds configuration settings for the logger
type Config struct {
	Enabled          *bool `json:"enabled" yaml:"enabled"`
	SubLoggerConfig  `yaml:",inline"`
	LoggerFileConfig *FileConfig       `json:"fileSettings,omitempty" yaml:"fileSettings,omitempty"`
	AdvancedSettings AdvancedSettings  `json:"advancedSettings" yaml:"advancedSettings"`
	SubLoggers       []SubLoggerConfig `json:"subloggers,omitempty" yaml:"subloggers,omitempty"`
}

// AdvancedSettings holds formatting settings shared by all sub loggers
type AdvancedSettings struct {
	ShowLogSystemName *bool   `json:"showLogSystemName" yaml:"showLogSystemName"`
	Spacer            string  `json:"spacer" yaml:"spacer"`
	TimeStampFormat   string  `json:"timeStampFormat" yaml:"timeStampFormat"`
	Headers           Headers `json:"headers" yaml:"headers"`
}

// Headers are the per level prefixes of each line
type Headers struct {
	Info  string `json:"info" yaml:"info"`
	Warn  string `json:"warn" yaml:"warn"`
	Debug string `json:"debug" yaml:"debug"`
	Error string `json:"error" yaml:"error"`
}

// SubLoggerConfig holds sub logger configuration settings
type SubLoggerConfig struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Level  string `json:"level" yaml:"level"`
	Output string `json:"output" yaml:"output"`
}

// FileConfig configures file output and rotation
type FileConfig struct {
	FileName   string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Rotate     *bool  `json:"rotate,omitempty" yaml:"rotate,omitempty"`
	MaxSize    int    `json:"maxsize,omitempty" yaml:"maxsize,omitempty"`
	MaxBackups int    `json:"maxbackups,omitempty" yaml:"maxbackups,omitempty"`
}

// Logger each instance of logger settings
type Logger struct {
	ShowLogSystemName                                bool
	TimestampFormat                                  string
	InfoHeader, ErrorHeader, DebugHeader, WarnHeader string
	Spacer                                           string
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}

type multiWriter struct {
	writers []io.Writer
	mu      sync.RWMutex
}
