// Package target implements the backend registry and target-dispatch
// layer: parsing a "scheme:spec" string, resolving it to a registered
// backend, and exposing that backend's per-target handle through one
// uniform operation vector.
package target

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vikas-lamba/sutwire/pkg/logger"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

// Backend is the descriptor every transport plugin registers under a
// scheme name. Init receives everything after the first ":" in a target
// spec and returns a Handle bound to that target, or an error.
type Backend interface {
	Name() string
	Init(spec string) (Handle, error)
}

// Handle is the opaque per-target state a Backend's Init returns. The
// concrete type implements whichever of the optional capability interfaces
// in ops.go it supports; operations it doesn't implement report
// twerr.CodeNotSupported.
type Handle interface{}

var (
	registryMu sync.RWMutex
	registry   = map[string]Backend{}
)

// Register adds a backend under its own Name() to the process-wide
// registry. Registering the same name twice panics: a backend is meant to
// be registered at most once, for the process lifetime, typically from an
// init() function in the backend's package.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := b.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("target: backend %q already registered", name))
	}
	registry[name] = b
}

func lookup(name string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[name]
	return b, ok
}

// Schemes returns the names of every registered backend, sorted, mostly
// useful for CLI help text and tests.
func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitSpec splits "scheme:rest" on the first colon. A spec with no colon
// has an empty rest.
func splitSpec(spec string) (scheme, rest string, err error) {
	idx := strings.IndexByte(spec, ':')
	if idx < 0 {
		scheme = spec
		rest = ""
	} else {
		scheme = spec[:idx]
		rest = spec[idx+1:]
	}
	if scheme == "" {
		return "", "", twerr.New(twerr.CodeInvalidTargetSpec)
	}
	return scheme, rest, nil
}

// New parses spec as "scheme:backend-spec", resolves scheme to a
// registered Backend, and returns the Target wrapping whatever Handle that
// backend's Init produces.
func New(spec string) (*Target, error) {
	log := logger.Get()
	log.Debugf("target: resolving spec %q", spec)

	scheme, rest, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}

	backend, ok := lookup(scheme)
	if !ok {
		log.Debugf("target: no backend registered for scheme %q", scheme)
		return nil, twerr.New(twerr.CodeUnknownPlugin)
	}

	handle, err := backend.Init(rest)
	if err != nil {
		return nil, twerr.Wrap(twerr.CodeInvalidTargetSpec, err)
	}
	if handle == nil {
		return nil, twerr.New(twerr.CodeUnknownPlugin)
	}

	return &Target{scheme: scheme, handle: handle}, nil
}
