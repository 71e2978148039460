package core

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

// Launcher opens workbook files in the system's default spreadsheet
// application and tracks which ones it launched, so they can be closed on
// request. It consults the same source allow-list as the save path.
type Launcher struct {
	sources *Sources

	mu   sync.Mutex
	open map[string]*exec.Cmd
}

// NewLauncher wires a launcher.
func NewLauncher(sources *Sources) *Launcher {
	return &Launcher{sources: sources, open: make(map[string]*exec.Cmd)}
}

// OpenFile launches the default application for a configured source. Returns
// the normalized path that was opened.
func (l *Launcher) OpenFile(path string) (string, error) {
	abs, allowed := l.sources.Resolve(path)
	if !allowed {
		return "", fmt.Errorf("%w: file not in allowed paths", ErrForbidden)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w: file not found", ErrNotFound)
	}

	cmd, err := openCommand(abs)
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: failed to open file: %v", ErrInternal, err)
	}

	l.mu.Lock()
	l.open[abs] = cmd
	l.mu.Unlock()

	slog.Info("opened workbook in external application", "file", filepath.Base(abs))
	return abs, nil
}

// CloseFile attempts to stop the launcher process tracked for a configured
// source. The external application may outlive the launcher process (most
// platforms hand the file off), so this is best effort; the return value
// reports whether a tracked process existed.
func (l *Launcher) CloseFile(path string) (bool, error) {
	abs, allowed := l.sources.Resolve(path)
	if !allowed {
		return false, fmt.Errorf("%w: file not in allowed paths", ErrForbidden)
	}

	l.mu.Lock()
	cmd, tracked := l.open[abs]
	delete(l.open, abs)
	l.mu.Unlock()

	if !tracked {
		return false, nil
	}
	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			slog.Debug("launcher process already gone", "file", filepath.Base(abs), "error", err)
		}
	}
	return true, nil
}

// Status reports, per configured source, whether this service launched it.
func (l *Launcher) Status() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := make(map[string]bool, len(l.sources.Paths()))
	for _, p := range l.sources.Paths() {
		_, tracked := l.open[p]
		status[p] = tracked
	}
	return status
}

// openCommand builds the platform's open-with-default-application command.
func openCommand(path string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	case "darwin":
		return exec.Command("open", path), nil
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return nil, fmt.Errorf("%w: xdg-open is not installed", ErrInternal)
		}
		return exec.Command("xdg-open", path), nil
	}
}
