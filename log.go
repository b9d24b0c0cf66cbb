package cerebro

import "log"

var verboseMode bool

// SetVerbose toggles debug logging for the whole package.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog logs only when verbose mode is enabled.
func VerboseLog(format string, v ...any) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
