package log

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Info takes a pointer subLogger struct and string sends to the output
func Info(sl *SubLogger, data string) {
	stage(sl, infoLevel, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface sends to the output
func Infoln(sl *SubLogger, v ...any) {
	stage(sl, infoLevel, func() string { return fmt.Sprint(v...) })
}

// Infof takes a pointer subLogger struct, string and interface formats sends to the output
func Infof(sl *SubLogger, data string, v ...any) {
	stage(sl, infoLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Debug takes a pointer subLogger struct and string sends to the output
func Debug(sl *SubLogger, data string) {
	stage(sl, debugLevel, func() string { return data })
}

// Debugln takes a pointer subLogger struct, string and interface sends to the output
func Debugln(sl *SubLogger, v ...any) {
	stage(sl, debugLevel, func() string { return fmt.Sprint(v...) })
}

// Debugf takes a pointer subLogger struct, string and interface formats sends to the output
func Debugf(sl *SubLogger, data string, v ...any) {
	stage(sl, debugLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Warn takes a pointer subLogger struct & string and sends to the output
func Warn(sl *SubLogger, data string) {
	stage(sl, warnLevel, func() string { return data })
}

// Warnln takes a pointer subLogger struct & interface formats and sends to the output
func Warnln(sl *SubLogger, v ...any) {
	stage(sl, warnLevel, func() string { return fmt.Sprint(v...) })
}

// Warnf takes a pointer subLogger struct, string and interface formats sends to the output
func Warnf(sl *SubLogger, data string, v ...any) {
	stage(sl, warnLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Error takes a pointer subLogger struct & interface formats and sends to the output
func Error(sl *SubLogger, data string) {
	stage(sl, errorLevel, func() string { return data })
}

// Errorln takes a pointer subLogger struct, string & interface formats and sends to the output
func Errorln(sl *SubLogger, v ...any) {
	stage(sl, errorLevel, func() string { return fmt.Sprint(v...) })
}

// Errorf takes a pointer subLogger struct, string and interface formats sends to the output
func Errorf(sl *SubLogger, data string, v ...any) {
	stage(sl, errorLevel, func() string { return fmt.Sprintf(data, v...) })
}

type level uint8

const (
	infoLevel level = iota
	debugLevel
	warnLevel
	errorLevel
)

func (sl *SubLogger) enabled(lvl level) bool {
	switch lvl {
	case infoLevel:
		return sl.Levels.Info
	case debugLevel:
		return sl.Levels.Debug
	case warnLevel:
		return sl.Levels.Warn
	case errorLevel:
		return sl.Levels.Error
	}
	return false
}

func header(l *Logger, lvl level) string {
	switch lvl {
	case infoLevel:
		return l.InfoHeader
	case debugLevel:
		return l.DebugHeader
	case warnLevel:
		return l.WarnHeader
	default:
		return l.ErrorHeader
	}
}

// stage formats and writes a log line when the level is enabled. The data
// func is only invoked once the level check passes.
func stage(sl *SubLogger, lvl level, data func() string) {
	if sl == nil {
		return
	}
	mu.RLock()
	if !sl.enabled(lvl) || sl.output == nil {
		mu.RUnlock()
		return
	}
	l := logger
	output := sl.output
	name := sl.name
	mu.RUnlock()

	var b strings.Builder
	b.WriteString(header(&l, lvl))
	if l.TimestampFormat != "" {
		b.WriteString(time.Now().Format(l.TimestampFormat))
	}
	if l.ShowLogSystemName {
		b.WriteString(name)
		b.WriteString(l.Spacer)
	} else if l.TimestampFormat == "" {
		b.WriteString(l.Spacer)
	}
	b.WriteString(data())
	b.WriteString("\n")

	writeMu.Lock()
	_, err := io.WriteString(output, b.String())
	writeMu.Unlock()
	displayError(err)
}

func displayError(err error) {
	if err != nil {
		log.Printf("Logger write error: %v\n", err)
	}
}
