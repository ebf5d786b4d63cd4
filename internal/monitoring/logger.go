// Package monitoring holds the diagnostic and progress hooks shared by the
// flow pipeline and its command-line tools.
package monitoring

import "log"

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

// Progress reports that pair done of total has been written.
func Progress(done, total int, name string) {
	Logf("processing %4d/%4d -> %s", done, total, name)
}
