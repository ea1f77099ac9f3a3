// Package storage defines the wallet data directory abstraction.
package storage

// Provider is the interface for file operations inside one wallet data
// directory. Names are relative to that directory.
type Provider interface {
	// Root returns the absolute directory path.
	Root() string
	// Path resolves name to an absolute path under Root.
	Path(name string) (string, error)
	// Exists reports whether name exists.
	Exists(name string) (bool, error)
	// Rename atomically replaces newName with oldName.
	Rename(oldName, newName string) error
	// Remove deletes name.
	Remove(name string) error
	// Glob returns the names directly under Root matching pattern.
	Glob(pattern string) ([]string, error)
}
