// Package errors provides standardized error types and helpers for the CedarBible codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownBook indicates a book short title that is not in the directory
	ErrUnknownBook = errors.New("unknown book")
	// ErrUnknownChapter indicates a chapter beyond the book's chapter count
	ErrUnknownChapter = errors.New("unknown chapter")
	// ErrOutOfRange indicates an absolute verse number outside the canonical range
	ErrOutOfRange = errors.New("out of range")
	// ErrVersificationMismatch indicates structurally incompatible versification schemes
	ErrVersificationMismatch = errors.New("versification mismatch")
	// ErrDuplicateTag indicates a tag title collision (case-insensitive)
	ErrDuplicateTag = errors.New("duplicate tag")
	// ErrStorage indicates a persistence-layer failure
	ErrStorage = errors.New("storage error")
)

// UnknownBookError reports a lookup for a book the directory does not contain.
type UnknownBookError struct {
	ShortTitle string // Short title used in the lookup
	Err        error  // Underlying error, if any
}

func (e *UnknownBookError) Error() string {
	return fmt.Sprintf("unknown book: %s", e.ShortTitle)
}

func (e *UnknownBookError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnknownBook
}

// UnknownChapterError reports a chapter number beyond a book's chapter count
// in a given versification scheme.
type UnknownChapterError struct {
	Scheme  string // Scheme name
	Book    string // Book short title
	Chapter int    // Chapter that was requested
	Count   int    // Chapters the book actually has in the scheme
}

func (e *UnknownChapterError) Error() string {
	return fmt.Sprintf("unknown chapter %d in %s (%d chapters in scheme %s)",
		e.Chapter, e.Book, e.Count, e.Scheme)
}

func (e *UnknownChapterError) Unwrap() error {
	return ErrUnknownChapter
}

// OutOfRangeError reports a verse position outside the valid range.
type OutOfRangeError struct {
	What  string // What was out of range (e.g., "absolute verse number", "verse")
	Value int    // Value that was requested
	Max   int    // Maximum valid value
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range (max %d)", e.What, e.Value, e.Max)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// VersificationMismatchError reports a structural incompatibility between two
// schemes that cannot be resolved by verse offsetting.
type VersificationMismatchError struct {
	SourceScheme string // Scheme the address was expressed in
	TargetScheme string // Scheme the address was being projected onto
	Book         string // Book where the mismatch was detected
	Reason       string // What disagrees (e.g., chapter counts)
}

func (e *VersificationMismatchError) Error() string {
	return fmt.Sprintf("versification mismatch between %s and %s in %s: %s",
		e.SourceScheme, e.TargetScheme, e.Book, e.Reason)
}

func (e *VersificationMismatchError) Unwrap() error {
	return ErrVersificationMismatch
}

// DuplicateTagError reports a tag title that collides case-insensitively with
// an existing tag.
type DuplicateTagError struct {
	Title string // Title that collided
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate tag title: %s", e.Title)
}

func (e *DuplicateTagError) Unwrap() error {
	return ErrDuplicateTag
}

// StorageError reports a persistence failure with operation context.
type StorageError struct {
	Operation string // Operation being performed (e.g., "create tag", "assign tag")
	Err       error  // Underlying error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStorage
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "tag", "note", "verse reference")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewUnknownBook creates an UnknownBookError
func NewUnknownBook(shortTitle string) *UnknownBookError {
	return &UnknownBookError{ShortTitle: shortTitle}
}

// NewUnknownChapter creates an UnknownChapterError
func NewUnknownChapter(scheme, book string, chapter, count int) *UnknownChapterError {
	return &UnknownChapterError{
		Scheme:  scheme,
		Book:    book,
		Chapter: chapter,
		Count:   count,
	}
}

// NewOutOfRange creates an OutOfRangeError
func NewOutOfRange(what string, value, max int) *OutOfRangeError {
	return &OutOfRangeError{What: what, Value: value, Max: max}
}

// NewVersificationMismatch creates a VersificationMismatchError
func NewVersificationMismatch(source, target, book, reason string) *VersificationMismatchError {
	return &VersificationMismatchError{
		SourceScheme: source,
		TargetScheme: target,
		Book:         book,
		Reason:       reason,
	}
}

// NewDuplicateTag creates a DuplicateTagError
func NewDuplicateTag(title string) *DuplicateTagError {
	return &DuplicateTagError{Title: title}
}

// NewStorage creates a StorageError
func NewStorage(operation string, err error) *StorageError {
	return &StorageError{Operation: operation, Err: err}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
