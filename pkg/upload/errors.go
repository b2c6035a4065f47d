package upload

import "errors"

var (
	// ErrFileTooLarge is returned for uploads over MaxFileSize.
	ErrFileTooLarge = errors.New("upload.file_too_large")

	// ErrExtensionNotAllowed is returned for extensions outside the
	// audio/image allow-lists.
	ErrExtensionNotAllowed = errors.New("upload.extension_not_allowed")
)
