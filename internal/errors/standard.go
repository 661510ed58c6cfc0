// Package errors provides standardized error messaging for the refptr runtime
package errors

import (
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryMemory     ErrorCategory = "MEMORY"
	CategoryLifetime   ErrorCategory = "LIFETIME"
	CategoryBounds     ErrorCategory = "BOUNDS"
	CategoryValidation ErrorCategory = "VALIDATION"
	CategorySystem     ErrorCategory = "SYSTEM"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// Is matches by category and code so call sites can compare against a
// package-level sentinel with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Common error constructors

// ExpiredReference reports a promotion attempt on a weak reference whose
// pointee has already been destroyed.
func ExpiredReference(operation string) *StandardError {
	return NewStandardError(CategoryLifetime, "EXPIRED_REFERENCE",
		fmt.Sprintf("Weak reference already expired in %s", operation),
		map[string]interface{}{"operation": operation})
}

func NullPointer(operation string) *StandardError {
	return NewStandardError(CategoryMemory, "NULL_POINTER",
		fmt.Sprintf("Null pointer dereference in %s", operation),
		map[string]interface{}{"operation": operation})
}

func IndexOutOfBounds(index, length uintptr) *StandardError {
	return NewStandardError(CategoryBounds, "INDEX_OUT_OF_BOUNDS",
		fmt.Sprintf("Index %d out of bounds for length %d", index, length),
		map[string]interface{}{"index": index, "length": length})
}

func InvalidSize(size uintptr, context string) *StandardError {
	return NewStandardError(CategoryValidation, "INVALID_SIZE",
		fmt.Sprintf("Invalid size %d in %s", size, context),
		map[string]interface{}{"size": size, "context": context})
}

func OutOfMemory(size uintptr, context string) *StandardError {
	return NewStandardError(CategoryMemory, "OUT_OF_MEMORY",
		fmt.Sprintf("Allocation of %d bytes failed in %s", size, context),
		map[string]interface{}{"size": size, "context": context})
}

func LeakDetected(count int, context string) *StandardError {
	return NewStandardError(CategoryMemory, "LEAK_DETECTED",
		fmt.Sprintf("%d allocations still active in %s", count, context),
		map[string]interface{}{"count": count, "context": context})
}
