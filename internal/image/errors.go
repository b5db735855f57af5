package image

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	fallbackMessage = "Request failed."
	noImageMessage  = "The response is not an image. Possibly an error message."
)

// GenerationError carries the last diagnostic seen before giving up.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message
}

// errorMessage extracts a human readable reason from an upstream error body.
func errorMessage(status int, body []byte) string {
	if !gjson.ValidBytes(body) {
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
		if reason := http.StatusText(status); reason != "" {
			return reason
		}
		return fallbackMessage
	}

	doc := gjson.ParseBytes(body)
	whole := strings.TrimSpace(doc.Raw)
	if doc.Type == gjson.Null {
		return doc.Raw
	}
	if !doc.IsObject() {
		return doc.String()
	}

	e := doc.Get("error")
	if e.IsObject() {
		if msg := e.Get("message"); truthy(msg) {
			return msg.String()
		}
		return whole
	}
	if truthy(e) {
		return e.String()
	}
	return whole
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	default:
		return false
	}
}
