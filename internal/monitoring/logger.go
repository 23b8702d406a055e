// Package monitoring holds the diagnostic logger shared by the simulation.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// TickLogf logs a message prefixed with the simulation tick it belongs to.
func TickLogf(tick uint64, format string, v ...interface{}) {
	Logf("[tick %d] %s", tick, fmt.Sprintf(format, v...))
}
