package web

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/sweeney/blowout/internal/scene"
)

// ErrNoScene is returned before the first frame has been stored.
var ErrNoScene = errors.New("no scene rendered yet")

// SceneStore holds the most recent scene for HTTP readers.
// The frame loop stores every frame; encoding happens only on request.
type SceneStore struct {
	mu     sync.RWMutex
	latest scene.Scene
	ok     bool
}

// NewSceneStore creates an empty store.
func NewSceneStore() *SceneStore {
	return &SceneStore{}
}

// Store replaces the latest scene. sc must not be modified afterwards.
func (s *SceneStore) Store(sc scene.Scene) {
	s.mu.Lock()
	s.latest = sc
	s.ok = true
	s.mu.Unlock()
}

// Latest returns the most recent scene and whether one has been stored.
func (s *SceneStore) Latest() (scene.Scene, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ok
}

// JSON encodes the most recent scene.
func (s *SceneStore) JSON() ([]byte, error) {
	sc, ok := s.Latest()
	if !ok {
		return nil, ErrNoScene
	}
	return json.Marshal(sc)
}
