package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that a record with the given message was logged, and
// that the record line carries every key=value pair in attrs.
func AssertLogged(t *testing.T, result *HarnessResult, msg string, attrs ...string) {
	t.Helper()

	needle := fmt.Sprintf("msg=%q", msg)
	if !strings.ContainsAny(msg, " =\"") {
		needle = "msg=" + msg
	}
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if !strings.Contains(line, needle) {
			continue
		}
		matched := true
		for _, attr := range attrs {
			if !strings.Contains(line, attr) {
				matched = false
				break
			}
		}
		if matched {
			return
		}
	}
	require.Failf(t, "log record not found", "message %q with %v not in log output:\n%s", msg, attrs, result.LogOutput)
}
