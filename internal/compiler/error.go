package compiler

import (
	"fmt"
	"strings"

	"txLogScope/internal/model"
)

// Diagnostic is one entry of the solc "errors" output array.
type Diagnostic struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage,omitempty"`
}

// Error reports compiler diagnostics of severity "error".
type Error struct {
	Version     string
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		if d.Type != "" {
			msgs = append(msgs, d.Type+": "+d.Message)
		} else {
			msgs = append(msgs, d.Message)
		}
	}
	return fmt.Sprintf("solc %s: %s", e.Version, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error {
	return model.ErrCompile
}

func errorDiagnostics(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if strings.EqualFold(d.Severity, "error") {
			out = append(out, d)
		}
	}
	return out
}
