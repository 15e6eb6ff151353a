package classifier

import "errors"

var (
	ErrModelUnavailable = errors.New("classifier model is not available")
	ErrImageDecode      = errors.New("image could not be decoded")
	ErrInference        = errors.New("inference failed")
)
