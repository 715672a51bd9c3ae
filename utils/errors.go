package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an application error by where it was detected.
type ErrorKind string

const (
	// KindValidation: detected client-side, never reached the network.
	KindValidation ErrorKind = "validation"
	// KindAuth: the service rejected the credentials or token (401).
	KindAuth ErrorKind = "auth"
	// KindNetwork: the transport itself failed (connection, timeout).
	KindNetwork ErrorKind = "network"
	// KindServer: the service answered with a non-2xx other than 401.
	KindServer ErrorKind = "server"
)

// AppError is a classified application error with a user-facing message and
// an HTTP status code for the response layer.
type AppError struct {
	Kind    ErrorKind
	Code    int    // HTTP status code for responses
	Message string // User-friendly message
	Err     error  // Underlying error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Common error constructors

func ValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: 400, Message: message}
}

func AuthError(message string, err error) *AppError {
	return &AppError{Kind: KindAuth, Code: 401, Message: message, Err: err}
}

func NetworkError(message string, err error) *AppError {
	return &AppError{Kind: KindNetwork, Code: 502, Message: message, Err: err}
}

func ServerError(code int, message string, err error) *AppError {
	if code < 400 {
		code = 500
	}
	return &AppError{Kind: KindServer, Code: code, Message: message, Err: err}
}
