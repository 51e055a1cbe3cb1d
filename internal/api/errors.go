package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrReauthRequired marks failures that can only be fixed by logging in again:
// the refresh token is missing or the refresh call itself failed.
var ErrReauthRequired = errors.New("re-authentication required")

// Kind classifies API failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRequest covers failures before anything reached the network.
	KindRequest
	// KindNetwork means no response was received.
	KindNetwork
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindServer
	// KindHTTP is any other non-2xx status.
	KindHTTP
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the classified error returned by every Client call.
type Error struct {
	Kind   Kind
	Method string
	Path   string
	Status int
	// Body is the raw response payload, untouched.
	Body []byte
	// Detail holds the backend's "detail" or "message" field when present.
	Detail string
	// Fields holds field-level validation errors.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Path == "" && e.Status == 0 && e.Err == nil && len(e.Fields) > 0 {
		return "invalid input: " + e.fieldSummary()
	}
	var b strings.Builder
	b.WriteString("api ")
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteString(" ")
	}
	b.WriteString(e.Path)
	switch {
	case e.Status > 0:
		fmt.Fprintf(&b, " returned status %d", e.Status)
		if e.Detail != "" {
			fmt.Fprintf(&b, ": %s", e.Detail)
		}
	case e.Err != nil:
		fmt.Fprintf(&b, ": %s: %v", e.Kind, e.Err)
	default:
		fmt.Fprintf(&b, ": %s", e.Kind)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// IsReauthRequired reports whether the session is gone for good.
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrReauthRequired)
}

// Message returns the most useful human-readable text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if len(apiErr.Fields) > 0 {
			return apiErr.fieldSummary()
		}
	}
	return err.Error()
}

func (e *Error) fieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return strings.Join(parts, ", ")
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindHTTP
	}
}

// statusError builds an *Error from a non-2xx response body.
func statusError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Kind:   kindForStatus(status),
		Method: method,
		Path:   path,
		Status: status,
		Body:   body,
	}
	e.Detail, e.Fields = parseErrorBody(body)
	return e
}

// parseErrorBody understands the backend's {"detail"}, {"message"} and
// {"errors": {field: [...]}} shapes as well as bare {field: [...]} maps.
func parseErrorBody(body []byte) (string, map[string][]string) {
	if len(body) == 0 {
		return "", nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}

	var detail string
	for _, key := range []string{"message", "detail"} {
		if msg, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(msg, &s) == nil && s != "" {
				detail = s
				break
			}
		}
	}

	fields := map[string][]string{}
	if nested, ok := raw["errors"]; ok {
		var m map[string][]string
		if json.Unmarshal(nested, &m) == nil {
			for k, v := range m {
				fields[k] = v
			}
		}
	}
	for k, v := range raw {
		if k == "message" || k == "detail" || k == "errors" {
			continue
		}
		var list []string
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			fields[k] = list
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return detail, fields
}
