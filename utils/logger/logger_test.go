package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"email", "student@example.com",
		"course_id", 7,
		"access_token", "abc",
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VyX2lkIjoxfQ.signature",
	})

	assert.Equal(t, []interface{}{
		"email", "[REDACTED]",
		"course_id", 7,
		"access_token", "[REDACTED]",
		"header", "[REDACTED]",
	}, out)
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"course_id", 1, "orphan"})
	assert.Equal(t, []interface{}{"course_id", 1, "orphan"}, out)
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *RollbarReporter
	assert.NotPanics(t, func() {
		r.Report("boom", assert.AnError, nil)
		r.Close()
	})
	assert.Nil(t, NewRollbarReporter("", "test", ""))
}

func TestReportWithoutReporter(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().With("course_id", 1).Report("failed", assert.AnError, "payment_id", 2)
	})
}
