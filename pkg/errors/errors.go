package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	ErrorTypeAuth          ErrorType = "AUTH"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"
	ErrorTypeNetwork       ErrorType = "NETWORK"
	ErrorTypeServerLogic   ErrorType = "SERVER_LOGIC"
	ErrorTypeHTTP          ErrorType = "HTTP"
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeUnknown       ErrorType = "UNKNOWN"
)

// ErrorSeverity indicates the impact level of an error
type ErrorSeverity string

const (
	SeverityTransient ErrorSeverity = "TRANSIENT"
	SeverityPermanent ErrorSeverity = "PERMANENT"
)

// typedError is implemented by every error of this package.
type typedError interface {
	error
	Type() ErrorType
	Severity() ErrorSeverity
}

// AuthError is returned when logging in to the controller fails.
type AuthError struct {
	Reason string
	Cause  error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error           { return e.Cause }
func (e *AuthError) Type() ErrorType         { return ErrorTypeAuth }
func (e *AuthError) Severity() ErrorSeverity { return SeverityPermanent }

// NewAuthError creates an AUTH error
func NewAuthError(reason string, cause error) *AuthError {
	return &AuthError{Reason: reason, Cause: cause}
}

// ConfigError reports a configuration file or value that cannot be used.
type ConfigError struct {
	Path   string
	Fields map[string]string
	Cause  error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		b.WriteString(fmt.Sprintf(" in %s", e.Path))
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name, msg := range e.Fields {
			names = append(names, fmt.Sprintf("%s: %s", name, msg))
		}
		sort.Strings(names)
		b.WriteString(": ")
		b.WriteString(strings.Join(names, "; "))
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error           { return e.Cause }
func (e *ConfigError) Type() ErrorType         { return ErrorTypeConfiguration }
func (e *ConfigError) Severity() ErrorSeverity { return SeverityPermanent }

// NewConfigError creates a CONFIGURATION error
func NewConfigError(path string, fields map[string]string, cause error) *ConfigError {
	return &ConfigError{Path: path, Fields: fields, Cause: cause}
}

// TransportError wraps a network-level failure: connection refused, TLS failure, timeout.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to perform request: %s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error           { return e.Cause }
func (e *TransportError) Type() ErrorType         { return ErrorTypeNetwork }
func (e *TransportError) Severity() ErrorSeverity { return SeverityTransient }

// ServerLogicError is a rejection reported inside the response envelope of an HTTP 2xx response.
type ServerLogicError struct {
	Code    int
	Message string
	Method  string
	URL     string
}

func (e *ServerLogicError) Error() string {
	return fmt.Sprintf("controller rejected %s %s: errorCode %d: %s", e.Method, e.URL, e.Code, e.Message)
}

func (e *ServerLogicError) Type() ErrorType         { return ErrorTypeServerLogic }
func (e *ServerLogicError) Severity() ErrorSeverity { return SeverityPermanent }

// HTTPError is returned for responses with a status code outside 2xx.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	ErrorCode  int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("server error (%d) for %s %s: %s", e.StatusCode, e.Method, e.URL, msg)
}

func (e *HTTPError) Type() ErrorType { return ErrorTypeHTTP }

func (e *HTTPError) Severity() ErrorSeverity {
	if e.StatusCode >= 500 {
		return SeverityTransient
	}
	return SeverityPermanent
}

// IsTransient checks if an error is transient (retryable)
func IsTransient(err error) bool {
	var te typedError
	if stderrors.As(err, &te) {
		return te.Severity() == SeverityTransient
	}
	return false
}

// IsPermanent checks if an error is permanent (not retryable)
func IsPermanent(err error) bool {
	var te typedError
	if stderrors.As(err, &te) {
		return te.Severity() == SeverityPermanent
	}
	return false
}

// GetErrorType extracts the error type from the outermost typed error in the chain
func GetErrorType(err error) ErrorType {
	var te typedError
	if stderrors.As(err, &te) {
		return te.Type()
	}
	return ErrorTypeUnknown
}
