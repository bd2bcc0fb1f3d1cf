package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thrasher-corp/blotter/common/convert"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	errSubloggerConfigIsNil  = errors.New("sublogger config is nil")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errFileLoggingNotSetup   = errors.New("file output requested without file settings")
	errSubLoggerNotFound     = errors.New("sub logger not found")
)

func getWriters(s *SubLoggerConfig) (io.Writer, error) {
	if s == nil {
		return nil, errSubloggerConfigIsNil
	}
	mw := &multiWriter{}
	outputWriters := strings.Split(s.Output, "|")
	for x := range outputWriters {
		var writer io.Writer
		switch strings.ToLower(strings.TrimSpace(outputWriters[x])) {
		case "stdout", "console":
			writer = os.Stdout
		case "stderr":
			writer = os.Stderr
		case "file":
			if globalLogFile == nil {
				return nil, errFileLoggingNotSetup
			}
			writer = globalLogFile
		case "":
			continue
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputWriters[x])
		}
		err := mw.Add(writer)
		if err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: convert.BoolPtr(true),
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|WARN|ERROR",
			Output: "console",
		},
		AdvancedSettings: AdvancedSettings{
			ShowLogSystemName: convert.BoolPtr(true),
			Spacer:            spacer,
			TimeStampFormat:   timestampFormat,
			Headers: Headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
}

// SetupGlobalLogger applies the supplied config to every registered sub
// logger. A nil config resets to the defaults.
func SetupGlobalLogger(cfg *Config) error {
	mu.Lock()
	defer mu.Unlock()
	if cfg == nil {
		def := GenDefaultSettings()
		cfg = &def
	}
	globalLogConfig = *cfg
	if cfg.Enabled != nil && !*cfg.Enabled {
		for _, sl := range subLoggers {
			sl.Levels = Levels{}
		}
		return nil
	}

	globalLogFile = nil
	if cfg.LoggerFileConfig != nil && cfg.LoggerFileConfig.FileName != "" {
		f, err := newFileWriter(cfg.LoggerFileConfig)
		if err != nil {
			return err
		}
		globalLogFile = f
	}

	for _, sl := range subLoggers {
		sl.Levels = splitLevel(cfg.Level)
		output, err := getWriters(&cfg.SubLoggerConfig)
		if err != nil {
			return err
		}
		sl.output = output
	}
	for x := range cfg.SubLoggers {
		output, err := getWriters(&cfg.SubLoggers[x])
		if err != nil {
			return err
		}
		err = configureSubLogger(strings.ToUpper(cfg.SubLoggers[x].Name), cfg.SubLoggers[x].Level, output)
		if err != nil {
			return err
		}
	}

	logger = newLogger(cfg)
	return nil
}

func newFileWriter(fc *FileConfig) (io.Writer, error) {
	if fc.Rotate != nil && *fc.Rotate {
		maxSize := fc.MaxSize
		if maxSize <= 0 {
			maxSize = DefaultMaxFileSize
		}
		backups := fc.MaxBackups
		if backups <= 0 {
			backups = DefaultMaxBackups
		}
		return &lumberjack.Logger{
			Filename:   fc.FileName,
			MaxSize:    maxSize,
			MaxBackups: backups,
		}, nil
	}
	return os.OpenFile(fc.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
}

func newLogger(c *Config) Logger {
	l := Logger{
		TimestampFormat: c.AdvancedSettings.TimeStampFormat,
		Spacer:          c.AdvancedSettings.Spacer,
		InfoHeader:      c.AdvancedSettings.Headers.Info,
		ErrorHeader:     c.AdvancedSettings.Headers.Error,
		DebugHeader:     c.AdvancedSettings.Headers.Debug,
		WarnHeader:      c.AdvancedSettings.Headers.Warn,
	}
	if c.AdvancedSettings.ShowLogSystemName != nil {
		l.ShowLogSystemName = *c.AdvancedSettings.ShowLogSystemName
	}
	return l
}

func configureSubLogger(subLogger, levels string, output io.Writer) error {
	logPtr, found := subLoggers[subLogger]
	if !found {
		return fmt.Errorf("%w: %v", errSubLoggerNotFound, subLogger)
	}
	logPtr.output = output
	logPtr.Levels = splitLevel(levels)
	return nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(strings.TrimSpace(enabledLevels[x])) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

// SetOutput redirects a sub logger, mostly useful for capturing in tests
func (sl *SubLogger) SetOutput(w io.Writer) {
	mu.Lock()
	sl.output = w
	mu.Unlock()
}

// SetLevels sets the enabled levels from a pipe separated string
func (sl *SubLogger) SetLevels(levels string) {
	mu.Lock()
	sl.Levels = splitLevel(levels)
	mu.Unlock()
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := &SubLogger{
		name:   strings.ToUpper(subLogger),
		output: os.Stdout,
		Levels: splitLevel(globalLogConfig.Level),
	}
	subLoggers[temp.name] = temp
	return temp
}

// register all loggers at package init()
func init() {
	logger = newLogger(&globalLogConfig)

	Global = registerNewSubLogger("LOG")
	Blotter = registerNewSubLogger("BLOTTER")
	Ledger = registerNewSubLogger("LEDGER")
	Policy = registerNewSubLogger("POLICY")
	Simulation = registerNewSubLogger("SIMULATION")
	ConfigMgr = registerNewSubLogger("CONFIG")
	Checkpoint = registerNewSubLogger("CHECKPOINT")
	APIServer = registerNewSubLogger("API")
}
