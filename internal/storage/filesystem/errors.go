package filesystem

import "errors"

// Error kinds returned by DocumentStore. Match them with errors.Is.
var (
	ErrRead         = errors.New("failed to read file")
	ErrSerialize    = errors.New("failed to serialize YAML")
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
	ErrValidation   = errors.New("validation error")
)

// Error is returned by every fallible DocumentStore operation.
//
// Kind is one of the sentinels above; Err is the underlying cause, if any.
// Both take part in errors.Is and errors.As:
//
//	if errors.Is(err, filesystem.ErrFileNotFound) {
//	    var fsErr *filesystem.Error
//	    errors.As(err, &fsErr)
//	    fmt.Println("missing:", fsErr.Path)
//	}
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrFileNotFound:
		return "file not found: " + e.Path
	case ErrInvalidPath:
		if e.Err != nil {
			return "invalid file path: " + e.Path + ": " + e.Err.Error()
		}
		return "invalid file path: " + e.Path
	}

	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func readError(path string, err error) error {
	return &Error{Kind: ErrRead, Path: path, Err: err}
}

func serializeError(path string, err error) error {
	return &Error{Kind: ErrSerialize, Path: path, Err: err}
}

func notFoundError(path string, err error) error {
	return &Error{Kind: ErrFileNotFound, Path: path, Err: err}
}

func invalidPathError(path string, err error) error {
	return &Error{Kind: ErrInvalidPath, Path: path, Err: err}
}

func validationError(path string, err error) error {
	return &Error{Kind: ErrValidation, Path: path, Err: err}
}
