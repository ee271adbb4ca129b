// Package errors defines the application error type shared by the
// HTTP handlers.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode classifies application errors.
type ErrorCode int

const (
	ErrorCode_INTERNAL ErrorCode = iota
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ROOM_NOT_FOUND
	ErrorCode_NO_MESSAGES
	ErrorCode_GENERATION_IN_FLIGHT
	ErrorCode_TRANSLATION_FAILED
	ErrorCode_SYNTHESIS_FAILED
	ErrorCode_TRANSCRIPTION_FAILED
	ErrorCode_SUMMARY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_INTERNAL:             "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:     "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:            "NOT_FOUND",
	ErrorCode_ROOM_NOT_FOUND:       "ROOM_NOT_FOUND",
	ErrorCode_NO_MESSAGES:          "NO_MESSAGES",
	ErrorCode_GENERATION_IN_FLIGHT: "GENERATION_IN_FLIGHT",
	ErrorCode_TRANSLATION_FAILED:   "TRANSLATION_FAILED",
	ErrorCode_SYNTHESIS_FAILED:     "SYNTHESIS_FAILED",
	ErrorCode_TRANSCRIPTION_FAILED: "TRANSCRIPTION_FAILED",
	ErrorCode_SUMMARY_FAILED:       "SUMMARY_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// AppError is the custom error type for the application.
type AppError struct {
	Raw       error             `json:"-"`
	HTTPCode  int               `json:"-"`
	Code      ErrorCode         `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Room Errors
func ErrRoomNotFound(roomName string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_ROOM_NOT_FOUND,
		Message:  "Room not found",
	}.WithDetail("room", roomName)
}

// Meeting Notes Errors
func ErrNoMessages(roomName string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_NO_MESSAGES,
		Message:  "No messages available to generate notes from",
	}.WithDetail("room", roomName)
}

func ErrGenerationInFlight(roomName string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_GENERATION_IN_FLIGHT,
		Message:  "Meeting notes generation is already running",
	}.WithDetail("room", roomName)
}

func ErrSummaryFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUMMARY_FAILED,
		Message:  "Failed to generate meeting notes",
	}
}

// Vendor Errors
func ErrTranslationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TRANSLATION_FAILED,
		Message:  "Translation failed",
	}
}

func ErrSynthesisFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SYNTHESIS_FAILED,
		Message:  "Speech synthesis failed",
	}
}

func ErrTranscriptionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TRANSCRIPTION_FAILED,
		Message:  "Audio transcription failed",
	}
}
