// Package telemetry provides the structured logger and metrics bridge
// every swarmmind component logs and emits metrics through. Components
// depend only on the core.Logger/core.MetricsRegistry interfaces;
// package telemetry supplies the concrete implementation and is wired
// in once at process start (cmd/swarmctl).
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is a component-scoped structured logger: JSON format under
// Kubernetes (detected via KUBERNETES_SERVICE_HOST), human-readable
// text otherwise, both overridable via SWARMMIND_LOG_FORMAT. Error logs
// are rate-limited to avoid flooding during cascading failures.
type Logger struct {
	level     string
	debug     bool
	component string
	format    string
	output    io.Writer
	mu        sync.RWMutex

	errorLimiter *RateLimiter
}

// NewLogger builds a root logger named for the overall process
// ("swarmmind"); call WithComponent to scope it to a subsystem
// ("agent/<id>", "swarm/coordinator", "llm/adapter").
func NewLogger() *Logger {
	level := os.Getenv("SWARMMIND_LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}
	debug := strings.EqualFold(level, "DEBUG") || os.Getenv("SWARMMIND_DEBUG") == "true"

	format := "text"
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = "json"
	}
	if f := os.Getenv("SWARMMIND_LOG_FORMAT"); f != "" {
		format = f
	}

	return &Logger{
		level:        strings.ToUpper(level),
		debug:        debug,
		component:    "swarmmind",
		format:       format,
		output:       os.Stdout,
		errorLimiter: NewRateLimiter(time.Second),
	}
}

// WithComponent returns a logger scoped to component, sharing the
// parent's level/format/output configuration and rate limiter.
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		level:        l.level,
		debug:        l.debug,
		component:    component,
		format:       l.format,
		output:       l.output,
		errorLimiter: l.errorLimiter,
	}
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) { l.log("INFO", msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]interface{}) { l.log("WARN", msg, fields) }

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	if l.errorLimiter != nil && !l.errorLimiter.Allow() {
		return
	}
	l.log("ERROR", msg, fields)
}

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

func (l *Logger) shouldLog(level string) bool {
	cur, ok1 := levelRank[l.level]
	msgLvl, ok2 := levelRank[level]
	if !ok1 || !ok2 {
		return true
	}
	return msgLvl >= cur
}

func (l *Logger) log(level, msg string, fields map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.shouldLog(level) {
		return
	}
	timestamp := time.Now().Format(time.RFC3339)
	if l.format == "json" {
		l.logJSON(timestamp, level, msg, fields)
	} else {
		l.logText(timestamp, level, msg, fields)
	}
}

func (l *Logger) logJSON(timestamp, level, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"component": l.component,
		"message":   msg,
	}
	for k, v := range fields {
		if k == "timestamp" || k == "level" || k == "component" || k == "message" {
			continue
		}
		entry[k] = v
	}
	if data, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(l.output, string(data))
	}
}

func (l *Logger) logText(timestamp, level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	if len(fields) > 0 {
		b.WriteString(" ")
		for k, v := range fields {
			fmt.Fprintf(&b, "%s=%v ", k, v)
		}
	}
	fmt.Fprintf(l.output, "%s [%s] [%s] %s%s\n", timestamp, level, l.component, msg, b.String())
}
