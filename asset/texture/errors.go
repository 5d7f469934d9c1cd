package texture

import "errors"

var (
	ErrUnsupportedFormat = errors.New("texture: unsupported image format")
	ErrDecode            = errors.New("texture: could not decode image")
)
