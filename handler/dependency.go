package handler

// Dependency is one child reference of a handled object: a child object
// paired with the handler responsible for it.
//
// Dependencies are produced by Policy.Children and consumed by the engine,
// which acquires them on Handle and releases them on Release.
type Dependency struct {
	kind    string
	acquire func() error
	release func() error
}

// On returns the dependency on c managed by child.
func On[C comparable, V any](child *Handler[C, V], c C) Dependency {
	return Dependency{
		kind:    child.Kind(),
		acquire: func() error { return child.Handle(c) },
		release: func() error { return child.Release(c) },
	}
}

// Func returns a dependency backed by arbitrary acquire and release
// functions, for children that are not managed by a Handler.
func Func(kind string, acquire, release func() error) Dependency {
	return Dependency{kind: kind, acquire: acquire, release: release}
}

// Kind returns the kind of the child.
func (d Dependency) Kind() string { return d.kind }
