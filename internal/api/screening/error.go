package screening

import "github.com/hudaib2009/AI-DR-Assistant/pkg/response"

var (
	ErrScreeningNotFound = response.NewError(404, "screening not found")
	ErrInvalidFileType   = response.NewError(400, "file must be a PNG or JPEG image")
	ErrFileTooLarge      = response.NewError(400, "file size exceeds the allowed limit")
	ErrEmptyImage        = response.NewError(400, "image payload is empty")
	ErrCreateScreening   = response.NewError(500, "failed to save screening")
	ErrDeleteScreening   = response.NewError(500, "failed to delete screening")
)
