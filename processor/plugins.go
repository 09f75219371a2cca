package processor

import "sync"

// Registration describes a registered processor.
type Registration struct {
	Name string
	// SupportedAnnotations are the fully qualified annotation types that the
	// processor handles.
	SupportedAnnotations []string
	Processor            Processor
}

var (
	registryLock      sync.Mutex
	registeredPlugins []Registration
)

// RegisterProcessor registers the given annotation processor under the given
// name. Registering a name a second time replaces the earlier registration.
func RegisterProcessor(name string, supportedAnnotations []string, p Processor) {
	registryLock.Lock()
	defer registryLock.Unlock()
	reg := Registration{Name: name, SupportedAnnotations: supportedAnnotations, Processor: p}
	for i := range registeredPlugins {
		if registeredPlugins[i].Name == name {
			registeredPlugins[i] = reg
			return
		}
	}
	registeredPlugins = append(registeredPlugins, reg)
}

// LookupProcessor returns the registration with the given name.
func LookupProcessor(name string) (Registration, bool) {
	registryLock.Lock()
	defer registryLock.Unlock()
	for _, reg := range registeredPlugins {
		if reg.Name == name {
			return reg, true
		}
	}
	return Registration{}, false
}

// AllRegistrations returns all registrations, in registration order.
func AllRegistrations() []Registration {
	registryLock.Lock()
	defer registryLock.Unlock()
	regs := make([]Registration, len(registeredPlugins))
	copy(regs, registeredPlugins)
	return regs
}

// AllRegisteredProcessors returns the list of all registered processors.
func AllRegisteredProcessors() []Processor {
	regs := AllRegistrations()
	procs := make([]Processor, len(regs))
	for i, reg := range regs {
		procs[i] = reg.Processor
	}
	return procs
}
