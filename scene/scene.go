// Package scene holds the test scenes of the harness and the registry the
// command line picks them from.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/akmonengine/testbed"
)

// ErrUnknownScene is wrapped when a name is not registered.
var ErrUnknownScene = errors.New("unknown scene")

// Scene is a populated session. Step runs one frame and Close ends the session.
type Scene interface {
	Name() string
	Step() float64
	Close()
	World() testbed.World
}

// Factory populates the world of t. The session must be fresh.
type Factory func(t *testbed.Test) Scene

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func init() {
	Register(GyroName, NewGyro)
	Register(TerrainName, NewTerrain)
}

// Register makes a scene available by name. Registering a name twice panics.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("scene: Register with a nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scene: %q registered twice", name))
	}
	registry[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownScene, name, namesLocked())
	}
	return f, nil
}

// Names returns the registered names in order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve expands "all" to every registered name and checks the others.
func Resolve(names ...string) ([]string, error) {
	if slices.Contains(names, "all") {
		return Names(), nil
	}
	for _, name := range names {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}
