package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for all file system paths. Everything
// resolves relative to the executable directory, never the working directory,
// so the binaries behave the same wherever they are launched from.
type Paths struct {
	ExecutableDir string
	DataDir       string
	RawFilingsDir string
	RatesFile     string
	ProcessedDir  string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return pathsUnder(filepath.Dir(exe)), nil
}

// PathsAt returns the application paths rooted at an explicit directory.
// Used by tests and by the --data flag on the command-line tools.
func PathsAt(root string) *Paths {
	return pathsUnder(root)
}

func pathsUnder(root string) *Paths {
	dataDir := filepath.Join(root, "data")
	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		RawFilingsDir: filepath.Join(dataDir, filepath.FromSlash(DefaultRawFilingsDir)),
		RatesFile:     filepath.Join(dataDir, filepath.FromSlash(DefaultRatesFile)),
		ProcessedDir:  filepath.Join(dataDir, filepath.FromSlash(DefaultProcessedDir)),
		LogsDir:       filepath.Join(root, "logs"),
	}
}

// RankReferencePath returns the path of the rank reference table.
func (p *Paths) RankReferencePath() string {
	return filepath.Join(p.ProcessedDir, RankReferenceName)
}

// PanelPath returns the path of the final panel artifact for the given rank
// threshold.
func (p *Paths) PanelPath(rankThreshold int) string {
	return filepath.Join(p.ProcessedDir, fmt.Sprintf("bank_data_rank%d.csv", rankThreshold))
}

// RawFilingPath returns the path of one period's raw filing file.
func (p *Paths) RawFilingPath(name string) string {
	return filepath.Join(p.RawFilingsDir, name)
}

// GetLogPath returns the path of a log file.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// EnsureDirectories creates every directory the application writes to.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.RawFilingsDir,
		filepath.Dir(p.RatesFile),
		p.ProcessedDir,
		p.LogsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
