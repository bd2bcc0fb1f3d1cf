package log

import "io"

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global     *SubLogger
	Blotter    *SubLogger
	Ledger     *SubLogger
	Policy     *SubLogger
	Simulation *SubLogger
	ConfigMgr  *SubLogger
	Checkpoint *SubLogger
	APIServer  *SubLogger
)

// SubLogger defines a named logging system with its own levels and output
type SubLogger struct {
	name   string
	Levels Levels
	output io.Writer
}
