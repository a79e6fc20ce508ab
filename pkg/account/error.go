package account

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxErrorText caps how much of an unstructured error body is quoted in an HttpError.
const maxErrorText = 120

// HttpError is returned when the service responds with a status other than 200 OK.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return e.Message
}

// Temporary returns true if the request might succeed if repeated later.
func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

/*
Error bodies come in two shapes. The identity provider returns:

	{"__type": "NotAuthorizedException", "message": "Incorrect username or password."}

while the vehicle API returns:

	{"message": "Unauthorized"} or {"error": "...", "error_description": "..."}
*/
type errorBody struct {
	Type             string `json:"__type"`
	Message          string `json:"message"`
	ErrorMessage     string `json:"Message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func newHttpError(code int, body []byte) *HttpError {
	e := &HttpError{Code: code}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		if text := summarize(string(body)); text != "" {
			e.Message = fmt.Sprintf("%d %s: %s", code, http.StatusText(code), text)
		}
		return e
	}
	message := parsed.Message
	if message == "" {
		message = parsed.ErrorMessage
	}
	if message == "" {
		message = parsed.ErrorDescription
	}
	if message == "" {
		message = parsed.Error
	}
	message = oneLine(message)
	switch {
	case parsed.Type != "" && message != "":
		e.Message = fmt.Sprintf("%s: %s", parsed.Type, message)
	case parsed.Type != "":
		e.Message = parsed.Type
	case message != "":
		e.Message = fmt.Sprintf("%d %s: %s", code, http.StatusText(code), message)
	}
	return e
}

// summarize reduces a plain-text error body to its first line. Markup (gateway error pages) is
// dropped entirely.
func summarize(body string) string {
	text := strings.TrimSpace(body)
	if text == "" || strings.HasPrefix(text, "<") {
		return ""
	}
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return truncate(text)
}

func oneLine(text string) string {
	return truncate(strings.Join(strings.Fields(text), " "))
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxErrorText {
		return text
	}
	return string([]rune(text)[:maxErrorText]) + "..."
}
