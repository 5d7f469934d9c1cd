package reader

import (
	"fmt"

	"github.com/achilleasa/go-raytrace/asset"
	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/scene"
)

var logger = log.New("reader")

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from a local file or URL.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadSceneFrom(res)
}

// Read scene from a resource. The reader is selected using the resource file
// extension.
func ReadSceneFrom(res *asset.Resource) (*scene.Scene, error) {
	var reader Reader
	switch res.Ext() {
	case ".yaml", ".yml":
		reader = newYamlReader()
	case ".obj":
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("reader: unsupported scene format '%s'", res.Ext())
	}
	return reader.Read(res)
}
