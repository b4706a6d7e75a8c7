// Package logging routes logrus output to a file so the terminal UI owns
// stdout and stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileName is the log file created inside the data directory.
const FileName = "lingoz.log"

// Setup points the standard logrus logger at <dir>/lingoz.log with the
// given level. The returned closer flushes and closes the file.
func Setup(dir, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	Configure(f, lvl)
	return f, nil
}

// Configure sets output, level and formatter on the standard logger.
func Configure(w io.Writer, lvl log.Level) {
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// ParseLevel accepts logrus level names; empty means info.
func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Discard silences logging, for commands that print to the terminal and
// tests that do not care about log output.
func Discard() {
	log.SetOutput(io.Discard)
}
