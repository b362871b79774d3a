// Package logger provides structured logging for the simulation server.
// Denials, random outcomes and dropped events must always be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger provides structured logging with context.
type Logger struct {
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	verbose     bool
}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{
		debugLogger: log.New(os.Stdout, "[SIM-DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile),
		infoLogger:  log.New(os.Stdout, "[SIM-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[SIM-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[SIM-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// NewWriterLogger sends every level to w. Used by tests and the verify tool.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		debugLogger: log.New(w, "[SIM-DEBUG] ", 0),
		infoLogger:  log.New(w, "[SIM-INFO] ", 0),
		warnLogger:  log.New(w, "[SIM-WARN] ", 0),
		errorLogger: log.New(w, "[SIM-ERROR] ", 0),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger(io.Discard)
}

// SetVerbose enables debug output.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Debug logs only when verbose output is enabled.
func (l *Logger) Debug(msg string) {
	if l.verbose {
		l.debugLogger.Println(msg)
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Event logs a specific simulation event.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details)
}

// Denial logs a rules-gateway denial. Denials are expected, so they stay at info level.
func (l *Logger) Denial(action, subject, reason, detail string) {
	l.infoLogger.Printf("[DENIED:%s] %s | %s %s", action, subject, reason, detail)
}

// Draw logs one random outcome.
func (l *Logger) Draw(stream string, tick uint64, seq int, value int64) {
	l.infoLogger.Printf("[DRAW:%s] tick=%d seq=%d value=%d", stream, tick, seq, value)
}

// Fault logs an event the resolver dropped, with enough detail to replay it.
func (l *Logger) Fault(tick uint64, phase string, reason string, event any) {
	l.warnLogger.Printf("[FAULT] tick=%d phase=%s | %s | %s", tick, phase, reason, fmt.Sprintf("%+v", event))
}
