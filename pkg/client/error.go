package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is a failure reported by the server, preserving the kind and the
// validation reasons it sent.
type Error struct {
	Status int

	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

func (e *Error) Error() string {
	text := e.Message

	if text == "" {
		text = http.StatusText(e.Status)
	}

	if len(e.Reasons) > 0 {
		text += ": " + strings.Join(e.Reasons, ", ")
	}

	return fmt.Sprintf("%s (%s)", text, e.Kind)
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	result := &Error{
		Status: resp.StatusCode,

		Kind:    "unknown",
		Message: strings.TrimSpace(string(data)),
	}

	var parsed Error

	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Kind != "" {
		parsed.Status = resp.StatusCode
		return &parsed
	}

	return result
}
