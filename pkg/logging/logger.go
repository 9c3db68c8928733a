package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	// Append the data to our internal buffer.
	w.buffer = append(w.buffer, buffer...)

	// Process all lines in the buffer, tracking the number of bytes that we
	// process.
	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	// If we managed to process bytes, then truncate our internal buffer.
	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Each Logger carries a Level
// that gates which calls actually produce output, so the same call sites work
// whether the engine was opened quietly or with tracing enabled. It is safe
// for concurrent usage, since it defers to the standard log package's
// internal locking.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the logging level for this logger and its subloggers.
	level Level
}

// RootLogger is the root logger from which all other loggers derive. It logs
// at LevelInfo by default.
var RootLogger = &Logger{level: LevelInfo}

// NewLogger creates a new root logger at the specified level.
func NewLogger(level Level) *Logger {
	return &Logger{level: level}
}

// Sublogger creates a new sublogger with the specified name, inheriting this
// logger's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

// Level returns the logger's current level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Info logs information at LevelInfo.
func (l *Logger) Info(v ...any) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof logs information at LevelInfo with Printf-style formatting.
func (l *Logger) Infof(format string, v ...any) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines at LevelInfo.
func (l *Logger) Writer() io.Writer {
	if l == nil || l.level < LevelInfo {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Info(s) }}
}

// Debug logs information at LevelDebug, a no-op unless debugging is enabled.
func (l *Logger) Debug(v ...any) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs information at LevelDebug with Printf-style formatting.
func (l *Logger) Debugf(format string, v ...any) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Trace logs information at LevelTrace.
func (l *Logger) Trace(v ...any) {
	if l != nil && l.level >= LevelTrace {
		l.output(3, fmt.Sprint(v...))
	}
}

// Tracef logs information at LevelTrace with Printf-style formatting.
func (l *Logger) Tracef(format string, v ...any) {
	if l != nil && l.level >= LevelTrace {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning in yellow.
func (l *Logger) Warn(v ...any) {
	if l != nil && l.level >= LevelWarn {
		l.output(3, color.YellowString("Warning: %s", fmt.Sprint(v...)))
	}
}

// Warnf logs a warning in yellow with Printf-style formatting.
func (l *Logger) Warnf(format string, v ...any) {
	if l != nil && l.level >= LevelWarn {
		l.output(3, color.YellowString("Warning: "+format, v...))
	}
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l != nil && l.level >= LevelError {
		l.output(3, color.RedString("Error: %v", err))
	}
}
