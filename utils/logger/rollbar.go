package logger

import (
	"github.com/rollbar/rollbar-go"
)

// RollbarReporter sends unexpected errors to Rollbar
type RollbarReporter struct{}

// NewRollbarReporter configures the global rollbar client. An empty token disables reporting.
func NewRollbarReporter(token, environment, codeVersion string) *RollbarReporter {
	if token == "" {
		return nil
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	if codeVersion != "" {
		rollbar.SetCodeVersion(codeVersion)
	}
	rollbar.SetEnabled(true)
	return &RollbarReporter{}
}

// Report sends err with extra context fields
func (r *RollbarReporter) Report(msg string, err error, fields map[string]interface{}) {
	if r == nil || err == nil {
		return
	}
	rollbar.Error(err, msg, fields)
}

// Close flushes queued items before shutdown
func (r *RollbarReporter) Close() {
	if r == nil {
		return
	}
	rollbar.Close()
}
