package renderer

import (
	"sync/atomic"

	"github.com/achilleasa/go-raytrace/log"
	"github.com/achilleasa/go-raytrace/scene"
	"github.com/achilleasa/go-raytrace/scene/reader"
)

// A Session tracks the scene currently selected for rendering. Scenes are
// swapped atomically so a failed load never replaces a working scene.
type Session struct {
	logger log.Logger

	path atomic.Value
	sc   atomic.Pointer[scene.Scene]
}

func NewSession() *Session {
	return &Session{
		logger: log.New("session"),
	}
}

// Load a scene and install it if it was read successfully. On failure the
// previously installed scene is retained and the error is returned.
func (s *Session) Load(path string) error {
	sc, err := reader.ReadScene(path)
	if err != nil {
		s.logger.Errorf("could not load scene %q: %v", path, err)
		return err
	}

	s.sc.Store(sc)
	s.path.Store(path)

	stats := sc.Stats()
	s.logger.Infof("loaded scene %q (objects: %d, lights: %d, faces: %d)", path, stats.Objects, stats.Lights, stats.Faces)
	return nil
}

// Get the installed scene or nil if no scene has been loaded.
func (s *Session) Scene() *scene.Scene {
	return s.sc.Load()
}

// Get the path of the installed scene.
func (s *Session) Path() string {
	path, _ := s.path.Load().(string)
	return path
}
