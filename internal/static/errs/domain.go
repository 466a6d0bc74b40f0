package errs

import "errors"

// Validation errors are reported to the caller before any side effect happens
var (
	ErrValidation    = errors.New("validation failed")
	NameRequired     = errors.New("name is required")
	DescriptionEmpty = errors.New("description is required")
	NotesTooLong     = errors.New("notes are too long")
	TestIDRequired   = errors.New("testId is required")
	NotAZipArchive   = errors.New("uploaded file must be a zip archive")
	FileRequired     = errors.New("file is required")
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrAppNotFound  = errors.New("app not found")
	ErrTestNotFound = errors.New("test not found")
	ErrBlobNotFound = errors.New("file not found")
	ErrNoResult     = errors.New("no result available for this test")
)

// Pipeline errors
var (
	ErrExtraction          = errors.New("failed to extract archive")
	ErrUnzippedDirNotFound = errors.New("unzipped directory not found")
	ErrUnknownOracle       = errors.New("unknown oracle")
	ErrRunInProgress       = errors.New("an oracle run is already in progress for this test")
	ErrScriptTimeout       = errors.New("oracle script timed out")
)

var validationErrors = []error{
	ErrValidation, NameRequired, DescriptionEmpty, NotesTooLong,
	TestIDRequired, NotAZipArchive, FileRequired,
	EmailRequired, WeakPassword,
}

// IsValidation reports whether err is one of the input validation errors
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
