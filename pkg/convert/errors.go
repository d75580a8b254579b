package convert

import (
	"errors"
	"fmt"
)

// ErrGeometryMismatch is returned when the destination planes do not match
// the source dimensions.
var ErrGeometryMismatch = errors.New("convert: plane geometry does not match the source")

// UnsupportedStrideError reports a surface whose rows cannot hold a full row
// of pixels, or whose buffer is too short for its rows.
type UnsupportedStrideError struct {
	// Surface names the offending surface: "source", "luma" or "chroma".
	Surface  string
	Stride   int
	Required int
	Err      error
}

func (e *UnsupportedStrideError) Error() string {
	return fmt.Sprintf("convert: %s stride %d unsupported, rows need %d bytes: %v", e.Surface, e.Stride, e.Required, e.Err)
}

func (e *UnsupportedStrideError) Unwrap() error {
	return e.Err
}
