// Package backup snapshots native client config files before they are
// mutated, so any sync or cleanup can be undone.
//
// Backups are grouped per client under a timestamped directory, each with a
// manifest.json recording origin paths, permissions, and SHA256 hashes.
// Hashes are verified again on restore.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// ManifestVersion is the manifest format version.
const ManifestVersion = 1

// DefaultRetention is how many backups are kept per client by default.
const DefaultRetention = 10

// Sentinel errors for backup operations.
var (
	// ErrNoBackups indicates no backups exist for the requested client.
	ErrNoBackups = errors.New("no backups found")

	// ErrCorrupted indicates a backed-up file failed hash verification.
	ErrCorrupted = errors.New("backup corrupted")
)

// Manifest describes one backup, stored as manifest.json next to the
// copied files.
type Manifest struct {
	// Version is the manifest format version.
	Version int `json:"version"`

	// CreatedAt is when the backup was taken.
	CreatedAt time.Time `json:"createdAt"`

	// Client is the target tool whose files were backed up.
	Client string `json:"client"`

	// Files lists every copied file.
	Files []File `json:"files"`

	// ToolVersion is the overture version that took the backup.
	ToolVersion string `json:"toolVersion"`

	// ID is the backup identifier (timestamp, e.g. 20260830T101530).
	// Derived from the directory name, not stored in JSON.
	ID string `json:"-"`
}

// File records one backed-up file.
type File struct {
	// OriginalPath is where the file lived.
	OriginalPath string `json:"originalPath"`

	// RelPath is its location inside the backup directory.
	RelPath string `json:"relPath"`

	// SHA256 is the hex hash of the copied contents.
	SHA256 string `json:"sha256"`

	// Mode holds the original permission bits.
	Mode fs.FileMode `json:"mode"`
}

// Manager creates, lists, restores, and prunes backups.
type Manager struct {
	rootDir     string
	retention   int
	toolVersion string
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the root backup directory.
func WithDir(dir string) Option {
	return func(m *Manager) { m.rootDir = dir }
}

// WithRetention sets how many backups to keep per client.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithToolVersion records the tool version in new manifests.
func WithToolVersion(v string) Option {
	return func(m *Manager) { m.toolVersion = v }
}

// NewManager creates a Manager rooted at the default backup directory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:     paths.BackupDir(),
		retention:   DefaultRetention,
		toolVersion: "dev",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Retention returns the configured per-client retention count.
func (m *Manager) Retention() int { return m.retention }

// Snapshot backs up the given files for a client and returns the manifest.
// Missing paths are skipped; a snapshot with nothing to copy returns
// ErrNoBackups so callers can treat "nothing existed yet" distinctly.
func (m *Manager) Snapshot(clientName string, filePaths []string) (*Manifest, error) {
	if clientName == "" {
		return nil, errors.New("client name is required")
	}
	if len(filePaths) == 0 {
		return nil, errors.New("at least one path is required")
	}

	id := time.Now().Format("20060102T150405")
	dir := m.backupDir(clientName, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating backup directory")
	}

	var files []File
	for _, p := range filePaths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", p)
		}
		if info.IsDir() {
			continue
		}
		f, err := m.copyIn(p, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "backing up %s", p)
		}
		files = append(files, *f)
	}

	if len(files) == 0 {
		os.RemoveAll(dir)
		return nil, errors.Wrap(ErrNoBackups, "no files to back up")
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   time.Now().UTC(),
		Client:      clientName,
		Files:       files,
		ToolVersion: m.toolVersion,
		ID:          id,
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := fileutil.AtomicWriteJSON(manifestPath, manifest); err != nil {
		return nil, errors.Wrap(err, "writing manifest")
	}
	return manifest, nil
}

// copyIn copies one file into the backup directory, keyed by its cleaned
// absolute path so origins stay recoverable.
func (m *Manager) copyIn(src, dir string) (*File, error) {
	relPath := storageRelPath(src)
	dst := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating parent directory")
	}

	hash, mode, err := copyFile(src, dst)
	if err != nil {
		return nil, err
	}
	return &File{OriginalPath: src, RelPath: relPath, SHA256: hash, Mode: mode}, nil
}

// Restore copies a backup's files back to their original locations after
// verifying their hashes.
func (m *Manager) Restore(clientName, id string) error {
	manifest, err := m.Get(clientName, id)
	if err != nil {
		return err
	}

	dir := m.backupDir(clientName, id)
	for _, f := range manifest.Files {
		src := filepath.Join(dir, f.RelPath)

		hash, err := hashFile(src)
		if err != nil {
			return errors.Wrapf(err, "reading backup file %s", f.RelPath)
		}
		if hash != f.SHA256 {
			return errors.Wrapf(ErrCorrupted, "file %s hash mismatch", f.RelPath)
		}

		if err := os.MkdirAll(filepath.Dir(f.OriginalPath), 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", f.OriginalPath)
		}
		if _, _, err := copyFile(src, f.OriginalPath); err != nil {
			return errors.Wrapf(err, "restoring %s", f.OriginalPath)
		}
		if err := os.Chmod(f.OriginalPath, f.Mode); err != nil {
			return errors.Wrapf(err, "setting permissions for %s", f.OriginalPath)
		}
	}
	return nil
}

// List returns a client's backups, newest first.
func (m *Manager) List(clientName string) ([]Manifest, error) {
	if clientName == "" {
		return nil, errors.New("client name is required")
	}

	entries, err := os.ReadDir(m.clientDir(clientName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackups
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(clientName, entry.Name())
		if err != nil {
			// Unreadable manifests are skipped, not fatal.
			continue
		}
		manifests = append(manifests, *manifest)
	}
	if len(manifests) == 0 {
		return nil, ErrNoBackups
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return manifests, nil
}

// Get loads one backup's manifest.
func (m *Manager) Get(clientName, id string) (*Manifest, error) {
	if clientName == "" {
		return nil, errors.New("client name is required")
	}
	if id == "" {
		return nil, errors.New("backup ID is required")
	}

	data, err := os.ReadFile(filepath.Join(m.backupDir(clientName, id), "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoBackups, "backup %s not found", id)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	manifest.ID = id
	return &manifest, nil
}

// Prune deletes a client's backups beyond the retention count, oldest first.
func (m *Manager) Prune(clientName string) error {
	manifests, err := m.List(clientName)
	if err != nil {
		if errors.Is(err, ErrNoBackups) {
			return nil
		}
		return err
	}

	for i := m.retention; i < len(manifests); i++ {
		dir := m.backupDir(clientName, manifests[i].ID)
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
	}
	return nil
}

func (m *Manager) clientDir(clientName string) string {
	return filepath.Join(m.rootDir, clientName)
}

func (m *Manager) backupDir(clientName, id string) string {
	return filepath.Join(m.clientDir(clientName), id)
}

// storageRelPath turns an absolute origin path into a relative storage
// path inside the backup directory.
func storageRelPath(absPath string) string {
	clean := filepath.Clean(absPath)
	if len(clean) > 0 && clean[0] == filepath.Separator {
		clean = clean[1:]
	}
	return clean
}

// hashFile computes the hex SHA256 of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dst, returning the contents hash and the source
// mode, which is applied to dst.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating destination file")
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dstFile, h), srcFile); err != nil {
		dstFile.Close()
		return "", 0, errors.Wrap(err, "copying file")
	}
	if err := dstFile.Close(); err != nil {
		return "", 0, errors.Wrap(err, "closing destination file")
	}
	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}
	return hex.EncodeToString(h.Sum(nil)), mode, nil
}
