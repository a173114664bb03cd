// Package oplock implements Diamond's two-layer advisory locking: a
// RefStore-scope lock held briefly for compound metadata updates, and an
// Operation-scope lock held for the duration of a whole multi-step
// orchestrator run (including across user-induced pauses on conflict).
package oplock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/gofrs/flock"
)

// ErrLockHeld is returned when a non-blocking acquire fails because another
// process holds the lock.
type ErrLockHeld struct {
	HolderPID int
}

func (e *ErrLockHeld) Error() string {
	if e.HolderPID > 0 {
		return fmt.Sprintf("lock is held by another diamond process (pid %d)", e.HolderPID)
	}
	return "lock is held by another diamond process"
}

// staleAfter is how old an operation lock file must be, with a dead holder
// pid, before a waiter is allowed to remove and retry once.
const staleAfter = 300 * time.Second

// Lock is a single advisory file lock with pid+timestamp liveness content,
// used for both the RefStore lock and the Operation lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a Lock bound to the given file path. The file need not exist yet.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Guard is a held lock; release it with Release (or defer it).
type Guard struct {
	lock *Lock
}

func (g *Guard) Release() error {
	if g == nil || g.lock == nil {
		return nil
	}
	return g.lock.release()
}

// Acquire blocks until the lock is obtained.
func (l *Lock) Acquire() (*Guard, error) {
	if err := l.fl.Lock(); err != nil {
		return nil, errors.Wrapf(err, "failed to acquire lock %q", l.path)
	}
	if err := l.writeContent(); err != nil {
		_ = l.fl.Unlock()
		return nil, err
	}
	return &Guard{lock: l}, nil
}

// TryAcquire attempts a non-blocking acquire. If the lock is held by a dead
// process whose lock file is older than staleAfter, it is removed and the
// acquire is retried exactly once.
func (l *Lock) TryAcquire() (*Guard, error) {
	ok, err := l.fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to acquire lock %q", l.path)
	}
	if ok {
		if err := l.writeContent(); err != nil {
			_ = l.fl.Unlock()
			return nil, err
		}
		return &Guard{lock: l}, nil
	}

	if l.isStale() {
		_ = os.Remove(l.path)
		ok, err = l.fl.TryLock()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to acquire lock %q", l.path)
		}
		if ok {
			if err := l.writeContent(); err != nil {
				_ = l.fl.Unlock()
				return nil, err
			}
			return &Guard{lock: l}, nil
		}
	}

	holderPID, _ := l.readHolder()
	return nil, &ErrLockHeld{HolderPID: holderPID}
}

func (l *Lock) release() error {
	_ = os.Remove(l.path)
	return l.fl.Unlock()
}

func (l *Lock) writeContent() error {
	content := fmt.Sprintf("%d:%d\n", os.Getpid(), time.Now().Unix())
	return os.WriteFile(l.path, []byte(content), 0o600)
}

// readHolder parses the "<pid>:<unix_seconds>" content of the lock file.
func (l *Lock) readHolder() (pid int, ts time.Time) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, time.Time{}
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), ":", 2)
	if len(parts) != 2 {
		return 0, time.Time{}
	}
	pid, _ = strconv.Atoi(parts[0])
	secs, _ := strconv.ParseInt(parts[1], 10, 64)
	return pid, time.Unix(secs, 0)
}

func (l *Lock) isStale() bool {
	pid, ts := l.readHolder()
	if pid == 0 {
		return false
	}
	if time.Since(ts) < staleAfter {
		return false
	}
	return !processIsAlive(pid)
}

// RefStorePath / OperationPath are the conventional lock file locations
// under a repository's internal diamond directory.
func RefStorePath(internalDir string) string {
	return filepath.Join(internalDir, "lock")
}

func OperationPath(internalDir string) string {
	return filepath.Join(internalDir, "operation.lock")
}
