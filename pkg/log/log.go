// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/relocation"
)

// 🎨 Display configuration
const (
	indent      = 4  // spaces before each outcome line
	opWidth     = 18 // width of the operation name
	kindWidth   = 18 // width of the failure kind
	headerTitle = "uploadrelay"
)

// 🎯 Logger prints operation results to a console and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	results []relocation.Outcome
}

// 🏭 New creates a console logger writing to console and logging through zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatOutcome formats one operation result for display
func formatOutcome(op string, out relocation.Outcome) string {
	symbol, symbolColor := '✓', color.FgGreen
	kind := ""
	if !out.Success {
		symbol, symbolColor = '✗', color.FgRed
		kind = out.Kind.String()
	}

	return fmt.Sprintf("%*s%s %s %s %s",
		indent, "",
		color.New(symbolColor).Sprint(string(symbol)),
		color.New(color.Bold).Sprintf("%-*s", opWidth, op),
		color.New(color.FgYellow).Sprintf("%-*s", kindWidth, kind),
		out.Message)
}

// 📝 LogOutcome prints the result of one operation
func (l *Logger) LogOutcome(ctx context.Context, op string, out relocation.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results = append(l.results, out)

	fmt.Fprintln(l.console, formatOutcome(op, out))

	event := l.zlog.Info()
	if !out.Success {
		event = l.zlog.Warn()
	}
	event.
		Str("operation", op).
		Str("operation_id", out.OperationID).
		Bool("success", out.Success).
		Str("kind", out.Kind.String()).
		Msg(out.Message)
}

// 📝 LogRecovery prints the result of a move recovery run
func (l *Logger) LogRecovery(ctx context.Context, report relocation.RecoveryReport) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%*s%s completed %s abandoned %s failed\n",
		indent, "",
		color.New(color.FgGreen).Sprint(report.Completed),
		color.New(color.FgYellow).Sprint(report.Abandoned),
		color.New(color.FgRed).Sprint(report.Failed))

	l.zlog.Info().
		Int("completed", report.Completed).
		Int("abandoned", report.Abandoned).
		Int("failed", report.Failed).
		Msg("move recovery finished")
}

// Failed reports whether any logged outcome was a failure.
func (l *Logger) Failed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, out := range l.results {
		if !out.Success {
			return true
		}
	}
	return false
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	title := color.New(color.Bold, color.FgCyan).Sprint(headerTitle)
	fmt.Fprintf(l.console, "\n%s %s\n\n", title, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}
