package queue

import (
	"strings"

	"musica/internal/services"
)

const maxErrorMessageLength = 2000

// FailureMessage renders a handler error for the error_message column,
// prefixed with its classification so operators can filter failed jobs.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	details := services.Details(err)
	message := details.Message
	if message == "" {
		message = "unknown failure"
	}
	kind := details.Kind
	if kind == "" {
		kind = services.KindUnknown
	}
	rendered := "[" + string(kind) + "] " + message
	if len(rendered) > maxErrorMessageLength {
		rendered = strings.ToValidUTF8(rendered[:maxErrorMessageLength], "")
	}
	return rendered
}
