package ports

// Watcher monitors a release directory for file changes. The daemon uses it
// to flag the in-memory tables as stale when a release file is added,
// replaced, or removed. Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir recursively. onChange is called with the
	// absolute path of each changed file and may be invoked from any
	// goroutine.
	Watch(dir string, onChange func(path string)) error

	// Stop ends monitoring and releases all resources. Safe to call
	// multiple times.
	Stop()
}
