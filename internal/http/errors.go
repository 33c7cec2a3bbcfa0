package http

import "fmt"

// StatusError is returned by the JSON helpers when the provider answers with
// a non-2xx status after retries are exhausted. Body carries the start of the
// response so provider error payloads survive into logs and error chains.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// maxErrorBody bounds how much of an error response is kept on a StatusError.
const maxErrorBody = 2048

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
