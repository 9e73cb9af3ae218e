// Package gitconfig implements the Git configuration port on top of Git's
// own configuration files. Files are parsed and rewritten with go-git's
// config format package, so edits preserve sections the way git config does.
//
// The standard GIT_CONFIG_SYSTEM, GIT_CONFIG_GLOBAL and GIT_CONFIG_NOSYSTEM
// environment overrides are honoured, matching git's behaviour.
package gitconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	format "github.com/go-git/go-git/v5/plumbing/format/config"

	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// Ensure Files implements the interface.
var _ driven.GitConfig = (*Files)(nil)

// Files reads and mutates Git configuration through the on-disk files.
type Files struct{}

// New creates a file-backed Git configuration adapter.
func New() *Files {
	return &Files{}
}

// Entries returns all values under the given section across the system,
// global and local configuration files, in precedence order. Missing files
// are skipped.
func (f *Files) Entries(ctx context.Context, section string) ([]driven.ConfigEntry, error) {
	var entries []driven.ConfigEntry
	for _, path := range readPaths() {
		cfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			continue
		}
		entries = append(entries, sectionEntries(cfg, section)...)
	}
	return entries, nil
}

// Add appends a value to a multi-valued key at the given level.
func (f *Files) Add(ctx context.Context, level driven.ConfigLevel, section, scope, name, value string) error {
	path, err := writePath(level)
	if err != nil {
		return err
	}
	cfg, err := loadFile(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = format.New()
	}
	sec := cfg.Section(section)
	if scope == "" {
		sec.AddOption(name, value)
	} else {
		sec.Subsection(scope).AddOption(name, value)
	}
	return saveFile(path, cfg)
}

// UnsetAll removes every value of a key at the given level. Removing an
// absent key, or editing an absent file, is not an error.
func (f *Files) UnsetAll(ctx context.Context, level driven.ConfigLevel, section, scope, name string) error {
	path, err := writePath(level)
	if err != nil {
		return err
	}
	cfg, err := loadFile(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	for _, sec := range cfg.Sections {
		if !sec.IsName(section) {
			continue
		}
		if scope == "" {
			sec.RemoveOption(name)
			continue
		}
		for _, sub := range sec.Subsections {
			if sub.Name == scope {
				sub.RemoveOption(name)
			}
		}
	}
	return saveFile(path, cfg)
}

func sectionEntries(cfg *format.Config, section string) []driven.ConfigEntry {
	var entries []driven.ConfigEntry
	for _, sec := range cfg.Sections {
		if !sec.IsName(section) {
			continue
		}
		for _, opt := range sec.Options {
			entries = append(entries, driven.ConfigEntry{Name: opt.Key, Value: opt.Value})
		}
		for _, sub := range sec.Subsections {
			for _, opt := range sub.Options {
				entries = append(entries, driven.ConfigEntry{Scope: sub.Name, Name: opt.Key, Value: opt.Value})
			}
		}
	}
	return entries
}

// readPaths lists the configuration files in precedence order: system first,
// then global, then local, so later entries override earlier ones.
func readPaths() []string {
	var paths []string
	if os.Getenv("GIT_CONFIG_NOSYSTEM") == "" {
		paths = append(paths, systemPath())
	}
	paths = append(paths, globalPaths()...)
	if local, ok := localPath(); ok {
		paths = append(paths, local)
	}
	return paths
}

func systemPath() string {
	if p := os.Getenv("GIT_CONFIG_SYSTEM"); p != "" {
		return p
	}
	return "/etc/gitconfig"
}

// globalPaths returns the per-user configuration files. Git reads the XDG
// file first and ~/.gitconfig after it, so the home file wins ties.
func globalPaths() []string {
	if p := os.Getenv("GIT_CONFIG_GLOBAL"); p != "" {
		return []string{p}
	}
	paths := []string{filepath.Join(xdg.ConfigHome, "git", "config")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".gitconfig"))
	}
	return paths
}

// localPath locates .git/config by walking up from the working directory.
func localPath() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, ".git", "config")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// writePath picks the file edits at the given level go to, following git's
// choice for the global level: an explicit override, then an existing
// ~/.gitconfig, then an existing XDG file, then ~/.gitconfig.
func writePath(level driven.ConfigLevel) (string, error) {
	switch level {
	case driven.ConfigSystem:
		return systemPath(), nil
	case driven.ConfigGlobal:
		if p := os.Getenv("GIT_CONFIG_GLOBAL"); p != "" {
			return p, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home directory: %w", err)
		}
		homeCfg := filepath.Join(home, ".gitconfig")
		if _, err := os.Stat(homeCfg); err == nil {
			return homeCfg, nil
		}
		xdgCfg := filepath.Join(xdg.ConfigHome, "git", "config")
		if _, err := os.Stat(xdgCfg); err == nil {
			return xdgCfg, nil
		}
		return homeCfg, nil
	case driven.ConfigLocal:
		if p, ok := localPath(); ok {
			return p, nil
		}
		return "", fmt.Errorf("not inside a git repository")
	default:
		return "", fmt.Errorf("unknown config level %d", level)
	}
}

func loadFile(path string) (*format.Config, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	cfg := format.New()
	if err := format.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func saveFile(path string, cfg *format.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := format.NewEncoder(file).Encode(cfg); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
