package tipotest

import "log"

// Process-wide switch, flipped once at startup from the -verbose flag.
var verboseMode bool

// SetVerbose toggles verbose diagnostic output for the whole process.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog writes through the standard logger when verbose mode is on.
// The generator and both commands use it for progress chatter that would
// drown normal output.
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
