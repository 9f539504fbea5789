package heapdb

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-wide structured logger. Database logs its creation
// at Info and each OpenTable call at Debug; the buffer pool and lock manager
// do not log.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().
	Timestamp().
	Logger().
	Level(zerolog.InfoLevel)

// SetLogLevel adjusts the verbosity of Logger, e.g. zerolog.DebugLevel to
// also see table-open events.
func SetLogLevel(level zerolog.Level) {
	Logger = Logger.Level(level)
}
