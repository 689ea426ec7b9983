package imageutil

import "errors"

var (
	ErrNotFound          = errors.New("imageutil: image not found")
	ErrDecode            = errors.New("imageutil: unsupported or corrupt image")
	ErrInvalidDimensions = errors.New("imageutil: invalid dimensions")
)
