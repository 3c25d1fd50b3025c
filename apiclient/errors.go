package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServerError
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network_error"
	}
	return "other"
}

// HTTPError is returned by Client.Do for every unsuccessful request.
type HTTPError struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	// BodyMessage is the best-effort human readable message from the response body.
	BodyMessage string
	Kind        ErrorKind
	// Fields holds field-level validation messages keyed by attribute name.
	Fields map[string][]string
	// Err is the transport error for KindNetwork.
	Err error
}

func (e *HTTPError) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("apiclient: network error: %v", e.Err)
	}
	msg := e.BodyMessage
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("apiclient: http %d (%s): %s", e.StatusCode, e.Kind, msg)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 HTTPError
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Kind == KindUnauthorized
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServerError
	}
	return KindOther
}

func newStatusError(status int, body []byte) *HTTPError {
	doc := gjson.ParseBytes(body)
	return &HTTPError{
		StatusCode:  status,
		Kind:        kindForStatus(status),
		BodyMessage: extractMessage(doc),
		Fields:      extractFields(doc),
	}
}

// extractMessage probes the message layouts seen from the backend:
// {message}, {error_description}, {error: "..."}, {error: {message}},
// {errors: ["..."]} and JSON:API {errors: [{detail|title}]}.
func extractMessage(doc gjson.Result) string {
	if !doc.IsObject() {
		return ""
	}
	for _, path := range []string{"message", "error_description", "error.message", "errors.0.detail", "errors.0.title"} {
		if v := doc.Get(path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	if v := doc.Get("error"); v.Type == gjson.String {
		return v.String()
	}
	if v := doc.Get("errors.0"); v.Type == gjson.String {
		return v.String()
	}
	if fields := extractFields(doc); len(fields) > 0 {
		return summarizeFields(fields)
	}
	return ""
}

// extractFields reads {errors: {field: ["msg"] | "msg"}} and JSON:API
// {errors: [{source: {pointer: "/data/attributes/field"}, detail}]}.
func extractFields(doc gjson.Result) map[string][]string {
	errs := doc.Get("errors")
	fields := map[string][]string{}
	switch {
	case errs.IsObject():
		errs.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				for _, m := range value.Array() {
					fields[key.String()] = append(fields[key.String()], m.String())
				}
			} else {
				fields[key.String()] = append(fields[key.String()], value.String())
			}
			return true
		})
	case errs.IsArray():
		for _, e := range errs.Array() {
			pointer := e.Get("source.pointer").String()
			if pointer == "" {
				continue
			}
			name := pointer[strings.LastIndex(pointer, "/")+1:]
			fields[name] = append(fields[name], e.Get("detail").String())
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func summarizeFields(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+strings.Join(fields[name], ", "))
	}
	return strings.Join(parts, "; ")
}
