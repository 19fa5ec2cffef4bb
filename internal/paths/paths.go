// Package paths resolves the logical file locations used by overture:
// the canonical config files, backup storage, and OS platform identity.
//
// Per-client native config locations are owned by the client adapters; this
// package only answers questions that are client-independent.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/adrg/xdg"

	"github.com/jander99/overture-sub000/internal/errors"
)

// AppName is used for directory naming under the XDG base directories.
const AppName = "overture"

// ConfigFileName is the canonical declarative config file name.
const ConfigFileName = "overture.yaml"

// HiddenConfigFileName is the dotted variant accepted at project roots.
const HiddenConfigFileName = ".overture.yaml"

// Platform identifiers for applicability decisions.
const (
	PlatformDarwin  = "darwin"
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
	PlatformWSL     = "wsl"
)

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// Platforms returns all recognized platform identifiers in deterministic order.
func Platforms() []string {
	return []string{PlatformDarwin, PlatformLinux, PlatformWindows, PlatformWSL}
}

// ValidPlatform returns true if the platform identifier is recognized.
func ValidPlatform(platform string) bool {
	switch platform {
	case PlatformDarwin, PlatformLinux, PlatformWindows, PlatformWSL:
		return true
	}
	return false
}

// wslCache holds the memoized WSL detection result. WSL detection reads
// /proc/version, which cannot change within a process lifetime, but tests
// need to substitute results, so the cache is explicit and resettable.
type wslCache struct {
	mu       sync.Mutex
	detected *bool
	procPath string
}

var wsl = &wslCache{procPath: "/proc/version"}

// ResetCache clears the memoized WSL detection result.
// Intended for test isolation.
func ResetCache() {
	wsl.mu.Lock()
	defer wsl.mu.Unlock()
	wsl.detected = nil
	wsl.procPath = "/proc/version"
}

// setProcVersionPath overrides the file consulted for WSL detection.
// Test hook; pair with ResetCache.
func setProcVersionPath(path string) {
	wsl.mu.Lock()
	defer wsl.mu.Unlock()
	wsl.detected = nil
	wsl.procPath = path
}

// IsWSL reports whether the process is running under WSL2.
// The result is cached for the process lifetime; see ResetCache.
func IsWSL() bool {
	wsl.mu.Lock()
	defer wsl.mu.Unlock()

	if wsl.detected != nil {
		return *wsl.detected
	}

	result := false
	if data, err := os.ReadFile(wsl.procPath); err == nil {
		v := strings.ToLower(string(data))
		result = strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
	}
	wsl.detected = &result
	return result
}

// Current returns the platform identifier for the running process.
// Linux under WSL2 reports PlatformWSL.
func Current() string {
	if runtime.GOOS == "linux" && IsWSL() {
		return PlatformWSL
	}
	return runtime.GOOS
}

// Home returns the user's home directory, or an empty string when it cannot
// be determined. Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
func DataHome() string {
	return xdg.DataHome
}

// UserConfigPath returns the user-scoped canonical config path:
// <ConfigHome>/overture/overture.yaml
func UserConfigPath() string {
	return filepath.Join(ConfigHome(), AppName, ConfigFileName)
}

// ProjectConfigPath returns the project-scoped canonical config path.
// The dotted variant is preferred when it already exists; otherwise the
// plain overture.yaml path is returned.
func ProjectConfigPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	hidden := filepath.Join(projectRoot, HiddenConfigFileName)
	if _, err := os.Stat(hidden); err == nil {
		return hidden
	}
	return filepath.Join(projectRoot, ConfigFileName)
}

// BackupDir returns the default backup storage directory:
// <DataHome>/overture/backups
func BackupDir() string {
	return filepath.Join(DataHome(), AppName, "backups")
}

// EnsureDir creates the directory and any necessary parents.
// Idempotent; returns nil if the directory already exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
