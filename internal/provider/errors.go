package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // provider error code, e.g. "invalid_grant"
	Message string // human-readable message from the provider
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider: %d: %s", e.Status, e.Message)
}

// decodeError understands the GoTrue shapes ({code,error_code,msg} and
// {error,error_description}) and the PostgREST shape ({code,message}).
func decodeError(status int, body []byte) error {
	var raw struct {
		ErrorCode        string          `json:"error_code"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
		Code             json.RawMessage `json:"code"`
	}
	_ = json.Unmarshal(body, &raw)

	e := &APIError{Status: status}
	switch {
	case raw.ErrorCode != "":
		e.Code = raw.ErrorCode
	case raw.Error != "":
		e.Code = raw.Error
	case len(raw.Code) > 0 && raw.Code[0] == '"':
		_ = json.Unmarshal(raw.Code, &e.Code)
	}
	for _, m := range []string{raw.Msg, raw.ErrorDescription, raw.Message} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(http.StatusText(status))
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsUnauthorized reports a rejected credential (401 or 403).
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsTransient reports failures worth retrying later: transport errors,
// timeouts, and 5xx answers.  4xx answers are final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
