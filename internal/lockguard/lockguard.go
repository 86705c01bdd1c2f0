// Package lockguard ensures at most one orchestration run is active per host.
//
// The lock is a marker file stamped with the owner's PID. The marker is
// published atomically (hard link of a fully written temp file), so it is
// never visible without its PID. Inspecting and replacing the marker happens
// under an OS file lock on a sidecar file, so two acquirers never both reclaim
// the same stale marker. A marker whose PID no longer names a live process is
// stale and is reclaimed on the next acquisition.
package lockguard

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/AndreyAkinshin/modrun/internal/errors"
)

const (
	// mutexWait bounds how long Acquire and Release wait for the sidecar lock.
	mutexWait = 5 * time.Second

	mutexRetry = 10 * time.Millisecond

	// emptyGrace is how long an empty marker counts as held. Markers written
	// by this package are never empty; a young empty one may be a foreign
	// writer between create and write.
	emptyGrace = 5 * time.Second
)

var (
	errEmptyMarker   = stderrors.New("empty lock marker")
	errInvalidMarker = stderrors.New("invalid lock contents")
)

// DefaultPath returns the default marker location.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "modrun.lock")
}

// processAlive reports whether pid names a running process. Tests replace it.
var processAlive = isProcessAlive

// Guard acquires the lock marker at a fixed path.
type Guard struct {
	path string
	pid  int
}

// New creates a guard for the marker at path.
func New(path string) *Guard {
	if path == "" {
		path = DefaultPath()
	}
	return &Guard{path: path, pid: os.Getpid()}
}

// Path returns the marker location.
func (g *Guard) Path() string {
	return g.path
}

// Handle is a held lock.
type Handle struct {
	path     string
	pid      int
	released bool
}

// lockMutex takes the sidecar file lock that serializes marker changes. The
// kernel drops it if the holder dies, so it never goes stale.
func lockMutex(marker string) (*flock.Flock, error) {
	fl := flock.New(marker + ".guard")
	ctx, cancel := context.WithTimeout(context.Background(), mutexWait)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, mutexRetry)
	if err != nil {
		return nil, errors.Environmentf("lock %s: %v", fl.Path(), err)
	}
	if !ok {
		return nil, errors.Environmentf("lock %s: timed out after %s", fl.Path(), mutexWait)
	}
	return fl, nil
}

// Acquire creates the marker. It fails with an AlreadyRunning error when a
// live process holds the lock, including this process through another
// handle, and with an Environment error when the marker cannot be created
// or inspected.
func (g *Guard) Acquire() (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return nil, errors.Environmentf("lock directory: %v", err)
	}

	mu, err := lockMutex(g.path)
	if err != nil {
		return nil, err
	}
	defer mu.Unlock()

	holder, err := readPID(g.path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return g.publish()
	case stderrors.Is(err, errEmptyMarker) && youngerThan(g.path, emptyGrace):
		return nil, errors.AlreadyRunning(0)
	case err == nil && (holder == g.pid || processAlive(holder)):
		return nil, errors.AlreadyRunning(holder)
	case err != nil && !stderrors.Is(err, errEmptyMarker) && !stderrors.Is(err, errInvalidMarker):
		return nil, errors.Environmentf("read lock %s: %v", g.path, err)
	}

	// Stale: a dead holder or contents no writer of ours produced.
	if err := os.Remove(g.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Environmentf("remove stale lock %s: %v", g.path, err)
	}
	return g.publish()
}

// publish links a fully written temp file into place. The link fails if a
// marker appeared in the meantime, which only a writer outside this package
// can cause.
func (g *Guard) publish() (*Handle, error) {
	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return nil, errors.Environmentf("create lock %s: %v", g.path, err)
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.WriteString(strconv.Itoa(g.pid) + "\n")
	cerr := tmp.Close()
	if err := stderrors.Join(werr, cerr, os.Chmod(tmp.Name(), 0o644)); err != nil {
		return nil, errors.Environmentf("write lock %s: %v", g.path, err)
	}

	if err := os.Link(tmp.Name(), g.path); err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			holder, _ := readPID(g.path)
			return nil, errors.AlreadyRunning(holder)
		}
		return nil, errors.Environmentf("create lock %s: %v", g.path, err)
	}
	return &Handle{path: g.path, pid: g.pid}, nil
}

// Holder returns the PID of the live process holding the lock, or 0 when the
// lock is free or stale.
func (g *Guard) Holder() (int, error) {
	pid, err := readPID(g.path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return 0, nil
	case err != nil:
		return 0, err
	case pid != g.pid && !processAlive(pid):
		return 0, nil
	}
	return pid, nil
}

// Release removes the marker if it still carries our PID. It is safe to call
// more than once.
func (h *Handle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true

	mu, err := lockMutex(h.path)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	defer mu.Unlock()

	pid, err := readPID(h.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil || pid != h.pid {
		// Someone else reclaimed the marker; leave theirs alone.
		return nil
	}
	if err := os.Remove(h.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, errEmptyMarker
	}
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w %q", errInvalidMarker, s)
	}
	return pid, nil
}

func youngerThan(path string, d time.Duration) bool {
	info, err := os.Stat(path)
	return err == nil && time.Since(info.ModTime()) < d
}
