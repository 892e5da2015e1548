package observer

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

var observerLog *log.Logger

func init() {
	if os.Getenv("COREWAR_OBSERVER_DEBUG") != "" {
		// Note: file handle intentionally left open for the process lifetime;
		// the OS reclaims it on exit.
		logPath := filepath.Join(os.TempDir(), "corewar-observer-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			observerLog = log.New(os.Stderr, "OBSERVER: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			observerLog = log.New(f, "OBSERVER: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		observerLog = log.New(io.Discard, "", 0)
	}
}

// debugLog logs a message if debug logging is enabled.
func debugLog(format string, args ...interface{}) {
	observerLog.Printf(format, args...)
}
