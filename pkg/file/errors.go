package file

import "errors"

var (
	ErrInvalidConfig           = errors.New("file.invalid_config")
	ErrNilFileHeader           = errors.New("file.nil_file_header")
	ErrInvalidPath             = errors.New("file.invalid_path")
	ErrFileNotFound            = errors.New("file.not_found")
	ErrFailedToOpenFile        = errors.New("file.failed_to_open")
	ErrFailedToReadFile        = errors.New("file.failed_to_read")
	ErrFailedToWriteFile       = errors.New("file.failed_to_write")
	ErrFailedToCreateFile      = errors.New("file.failed_to_create")
	ErrFailedToCreateDirectory = errors.New("file.failed_to_create_directory")
	ErrFailedToDeleteFile      = errors.New("file.failed_to_delete")
	ErrFailedToLoadConfig      = errors.New("file.failed_to_load_aws_config")
	ErrIsDirectory             = errors.New("file.is_directory")
)
