// Package errs defines the engine's error taxonomy and propagation helpers.
// Per-file parse/read errors are counted by the caller and never propagate
// as a top-level failure; every other category bubbles to the query facade
// as a typed error so it can be reported as {success:false, error}.
package errs

import "fmt"

// Code identifies one of the taxonomy's error categories.
type Code string

const (
	// CodeConfig covers invalid dimensions, unknown models, bad paths.
	CodeConfig Code = "config_error"
	// CodeIO covers unreadable files and unwritable store directories.
	CodeIO Code = "io_error"
	// CodeParse covers a single file's parse failure. Always recovered.
	CodeParse Code = "parse_error"
	// CodeEmbedding covers embedder init or inference failures.
	CodeEmbedding Code = "embedding_error"
	// CodeStore covers vector/keyword store dimension mismatch or backend failure.
	CodeStore Code = "store_error"
	// CodeValidation covers malformed or out-of-bounds caller input.
	CodeValidation Code = "validation_error"
	// CodeNotFound marks an absent file or symbol. Not fatal; callers
	// typically render this as an empty result rather than an error.
	CodeNotFound Code = "not_found"
)

// Error is the engine's typed error. It wraps an underlying cause and
// carries a stable Code so callers can branch on category without string
// matching.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// Config wraps a configuration-category error.
func Config(msg string, err error) *Error { return newErr(CodeConfig, msg, err) }

// IO wraps a filesystem-category error.
func IO(msg string, err error) *Error { return newErr(CodeIO, msg, err) }

// Parse wraps a single-file parse error. Callers must recover from this,
// never let it abort a run.
func Parse(msg string, err error) *Error { return newErr(CodeParse, msg, err) }

// Embedding wraps an embedder init/inference error.
func Embedding(msg string, err error) *Error { return newErr(CodeEmbedding, msg, err) }

// Store wraps a vector/keyword store error.
func Store(msg string, err error) *Error { return newErr(CodeStore, msg, err) }

// Validation wraps a caller-input validation error.
func Validation(msg string) *Error { return newErr(CodeValidation, msg, nil) }

// NotFoundf builds a not-found error for the given subject.
func NotFoundf(format string, args ...any) *Error {
	return newErr(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Code == code
}
