// Package log provides named, leveled loggers for the reconstruction stages.
// Each stage (load, carve, tessellate, export, ...) gets its own module name so
// every line carries severity, stage and message.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var levelNames = map[string]Level{
	"debug":   Debug,
	"info":    Info,
	"notice":  Notice,
	"warning": Warning,
	"warn":    Warning,
	"error":   Error,
}

func (l Level) String() string {
	if gl, ok := levels[l]; ok {
		return strings.ToLower(gl.String())
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a level name such as "info" or "WARNING" to a Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Notice, fmt.Errorf("unknown log level %q (want debug, info, notice, warning or error)", s)
	}
	return l, nil
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	mu             sync.Mutex
	current        = Notice
	leveledBackend logging.LeveledBackend
)

// Logger is the logging surface injected into pipeline components.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New creates a logger for the named stage.
func New(stage string) Logger {
	return logging.MustGetLogger(stage)
}

// SetSink redirects every stage to sink. The current level carries over.
func SetSink(sink io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	leveledBackend = logging.AddModuleLevel(backend)
	leveledBackend.SetLevel(levels[current], "")
	logging.SetBackend(leveledBackend)
}

// SetLevel sets logger verbosity for all stages. Unknown levels are ignored.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	gl, ok := levels[level]
	if !ok {
		return
	}
	current = level
	leveledBackend.SetLevel(gl, "")
}

// CurrentLevel reports the verbosity last set with SetLevel.
func CurrentLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Discard returns a logger that drops everything. Tests use it to keep
// output quiet.
func Discard() Logger {
	return nop{}
}

type nop struct{}

func (nop) Debug(...interface{})            {}
func (nop) Debugf(string, ...interface{})   {}
func (nop) Notice(...interface{})           {}
func (nop) Noticef(string, ...interface{})  {}
func (nop) Info(...interface{})             {}
func (nop) Infof(string, ...interface{})    {}
func (nop) Warning(...interface{})          {}
func (nop) Warningf(string, ...interface{}) {}
func (nop) Error(...interface{})            {}
func (nop) Errorf(string, ...interface{})   {}

func init() {
	SetSink(os.Stderr)
}
