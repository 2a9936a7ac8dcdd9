// Package log is a small leveled logger in the style the teacher's own call
// sites expect (e.g. rlp/decode_type.go's `log.Error("...: %v", l, err)`):
// printf-style messages, a handful of levels, and colorized output when
// attached to a terminal.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Lvl is a logging level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERRO"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DBUG"
	default:
		return "????"
	}
}

var levelColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgRed, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
}

// Logger writes leveled, printf-style messages to an output stream. The
// zero value is not usable; use New or the package-level default.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	level    Lvl
	ctx      []interface{} // key/value pairs carried by every message (e.g. a load ID)
}

// New returns a Logger writing to w. If w is a terminal (detected via
// go-isatty through a go-colorable wrapper), messages are colorized by
// level.
func New(w io.Writer) *Logger {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if colorize {
			w = colorable.NewColorable(f)
		}
	}
	return &Logger{out: w, colorize: colorize, level: LvlInfo}
}

// Default is the package-level logger used by the free functions below.
var Default = New(os.Stderr)

// SetLevel changes the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Lvl) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = lvl
}

// With returns a derived Logger that appends the given key/value context
// after every message's text, e.g. a load ID so concurrent loads don't interleave
// confusingly in the output.
func (l *Logger) With(kv ...interface{}) *Logger {
	nl := &Logger{out: l.out, colorize: l.colorize, level: l.level}
	nl.ctx = append(append([]interface{}{}, l.ctx...), kv...)
	return nl
}

func (l *Logger) log(lvl Lvl, skip int, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl > l.level {
		return
	}
	text := msg
	if len(args) > 0 {
		text = fmt.Sprintf(msg, args...)
	}
	caller := fmt.Sprintf("%+v", stack.Caller(skip))
	line := fmt.Sprintf("[%s] %-4s %s", time.Now().UTC().Format("15:04:05.000"), lvl, text)
	for i := 0; i+1 < len(l.ctx); i += 2 {
		line += fmt.Sprintf(" %v=%v", l.ctx[i], l.ctx[i+1])
	}
	if caller != "" {
		line += " caller=" + caller
	}
	if l.colorize {
		if c, ok := levelColor[lvl]; ok {
			line = c.Sprint(line)
		}
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) Crit(msg string, args ...interface{})  { l.log(LvlCrit, 3, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LvlError, 3, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(LvlWarn, 3, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(LvlInfo, 3, msg, args) }
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LvlDebug, 3, msg, args) }

// Package-level convenience wrappers over Default, matching the teacher's
// call-site style (bare `log.Error(...)`, no logger plumbing at call
// sites).
func Crit(msg string, args ...interface{})  { Default.log(LvlCrit, 3, msg, args) }
func Error(msg string, args ...interface{}) { Default.log(LvlError, 3, msg, args) }
func Warn(msg string, args ...interface{})  { Default.log(LvlWarn, 3, msg, args) }
func Info(msg string, args ...interface{})  { Default.log(LvlInfo, 3, msg, args) }
func Debug(msg string, args ...interface{}) { Default.log(LvlDebug, 3, msg, args) }
