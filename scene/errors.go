package scene

import "errors"

var (
	ErrBadMesh        = errors.New("trimesh: bad mesh")
	ErrCameraNotSet   = errors.New("scene: no camera defined")
	ErrInvalidTexture = errors.New("scene: could not load texture")
)
