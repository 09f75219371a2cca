package compatgo

import (
	"fmt"
	"sort"
	"sync"
)

// Gate says how a change is enabled for an app.
type Gate int

const (
	// GateDefault changes are enabled for all apps.
	GateDefault Gate = iota
	// GateDisabled changes are disabled for all apps.
	GateDisabled
	// GateEnabledAfter changes are enabled for apps that target an SDK
	// strictly greater than TargetSdk.
	GateEnabledAfter
	// GateEnabledSince changes are enabled for apps that target TargetSdk or
	// later.
	GateEnabledSince
	// GateLoggingOnly changes are never enforced, only reported.
	GateLoggingOnly
)

// Change is the runtime description of a compatibility change. Values are
// registered by code that the compatgo tool generates.
type Change struct {
	ID   int64
	Name string
	Gate Gate
	// TargetSdk is only used by GateEnabledAfter and GateEnabledSince.
	TargetSdk   int
	Overridable bool
	Description string
	// DefinedIn is the qualified name of the package or type that declares
	// the change.
	DefinedIn string
}

// EnabledFor reports whether the change applies to an app targeting the given
// SDK version. Logging-only changes are always reported as enabled.
func (c Change) EnabledFor(targetSdk int) bool {
	switch c.Gate {
	case GateDisabled:
		return false
	case GateEnabledAfter:
		return targetSdk > c.TargetSdk
	case GateEnabledSince:
		return targetSdk >= c.TargetSdk
	default:
		return true
	}
}

var (
	registryMu sync.RWMutex
	changes    = map[int64]Change{}
)

// RegisterChange records the given change. Registering the same change twice
// is allowed. It panics if a different change was already registered with the
// same ID.
func RegisterChange(c Change) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := changes[c.ID]; ok && existing != c {
		panic(fmt.Sprintf("change %d already registered as %s (in %s); cannot register as %s (in %s)",
			c.ID, existing.Name, existing.DefinedIn, c.Name, c.DefinedIn))
	}
	changes[c.ID] = c
}

// LookupChange returns the registered change with the given ID.
func LookupChange(id int64) (Change, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := changes[id]
	return c, ok
}

// AllChanges returns every registered change, sorted by ID.
func AllChanges() []Change {
	registryMu.RLock()
	all := make([]Change, 0, len(changes))
	for _, c := range changes {
		all = append(all, c)
	}
	registryMu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all
}
