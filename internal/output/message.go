package output

import (
	"fmt"
	"io"
)

// Info prints an informational line to w.
func Info(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, "ℹ️  "+fmt.Sprintf(format, args...))
}

// Warn prints a warning line to w.
func Warn(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, "⚠️  "+fmt.Sprintf(format, args...))
}

// Success prints a success line to w.
func Success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, "✅ "+fmt.Sprintf(format, args...))
}
