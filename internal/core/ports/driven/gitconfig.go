package driven

import "context"

// ConfigLevel identifies one of Git's configuration scopes.
type ConfigLevel int

const (
	// ConfigSystem is the machine-wide configuration file.
	ConfigSystem ConfigLevel = iota
	// ConfigGlobal is the per-user configuration file.
	ConfigGlobal
	// ConfigLocal is the repository configuration file.
	ConfigLocal
)

// ConfigEntry is one value from a Git configuration section. Scope is the
// subsection (the URL or host pattern in `credential "<scope>"`); it is empty
// for unscoped entries. Entries are reported in precedence order: system
// first, then global, then local, preserving file order within each level,
// so a later entry wins ties.
type ConfigEntry struct {
	Scope string
	Name  string
	Value string
}

// GitConfig reads and mutates Git configuration. The scoped settings
// resolver reads through this port; configure/unconfigure write through it.
type GitConfig interface {
	// Entries returns all values under the given section across every
	// configuration level, in precedence order.
	Entries(ctx context.Context, section string) ([]ConfigEntry, error)

	// Add appends a value to a multi-valued key at the given level.
	Add(ctx context.Context, level ConfigLevel, section, scope, name, value string) error

	// UnsetAll removes every value of a key at the given level. Removing an
	// absent key is not an error.
	UnsetAll(ctx context.Context, level ConfigLevel, section, scope, name string) error
}
