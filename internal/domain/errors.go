package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrFileTooLarge            = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed            = errors.New("file upload to storage failed")
	ErrRecordNotFound          = errors.New("document record not found")
	ErrRecordNotCompleted      = errors.New("document record has not been validated yet")
	ErrExtractionFailed        = errors.New("field extraction failed")
	ErrAdvisoryFailed          = errors.New("advisory review failed")
)
