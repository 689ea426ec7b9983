package img2gba

import (
	"errors"

	"github.com/wbrown/img2gba/imageutil"
)

var (
	// ErrInvalidArgument reports a bad parameter: non-positive sizes,
	// a palette size outside [1, distinct colours], or bad cluster
	// settings.
	ErrInvalidArgument = errors.New("img2gba: invalid argument")

	// ErrNotFound and ErrDecode are surfaced unchanged from image loading.
	ErrNotFound = imageutil.ErrNotFound
	ErrDecode   = imageutil.ErrDecode
)
