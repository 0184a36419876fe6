// Package log provides named, leveled loggers shared by every glint package.
// All loggers write through one backend; SetSink and SetLevel affect them all.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// Level is a logger verbosity, from most to least verbose.
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = [...]struct {
	name    string
	backend logging.Level
}{
	Debug:   {"debug", logging.DEBUG},
	Info:    {"info", logging.INFO},
	Notice:  {"notice", logging.NOTICE},
	Warning: {"warning", logging.WARNING},
	Error:   {"error", logging.ERROR},
}

// String returns the lowercase level name.
func (l Level) String() string {
	if l < Debug || l > Error {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levels[l].name
}

// ParseLevel maps a level name, case-insensitively, to its Level.
func ParseLevel(name string) (Level, error) {
	for l, lv := range levels {
		if strings.EqualFold(name, lv.name) {
			return Level(l), nil
		}
	}
	return Notice, fmt.Errorf("unknown log level %q", name)
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	backend logging.LeveledBackend
	current = Notice
)

// Logger is the subset of go-logging used across glint.
type Logger interface {
	Debug(v ...any)
	Debugf(format string, v ...any)

	Info(v ...any)
	Infof(format string, v ...any)

	Notice(v ...any)
	Noticef(format string, v ...any)

	Warning(v ...any)
	Warningf(format string, v ...any)

	Error(v ...any)
	Errorf(format string, v ...any)
}

// New returns the logger for module name.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects every logger to w, keeping the current level.
func SetSink(w io.Writer) {
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(levels[current].backend, "")
	logging.SetBackend(backend)
}

// SetLevel drops messages below level. Out-of-range values are ignored.
func SetLevel(level Level) {
	if level < Debug || level > Error {
		return
	}
	current = level
	backend.SetLevel(levels[level].backend, "")
}

// CurrentLevel returns the active verbosity.
func CurrentLevel() Level { return current }

func init() {
	SetSink(os.Stderr)
}
