package pgs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Lock acquisition budget and poll interval, matching lckpwdf(3).
const (
	lockTimeout       = 15 * time.Second
	lockRetryInterval = time.Second
)

// pwdLock is the advisory lock the shadow tool suite honors: an
// exclusive fcntl record lock on <prefix>/etc/.pwd.lock. Closing the
// file releases the lock.
type pwdLock struct {
	f *os.File
}

func acquirePwdLock(path string, timeout time.Duration) (*pwdLock, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := tryLock(f.Fd())
		if err == nil {
			return &pwdLock{f: f}, nil
		}
		if !lockBusy(err) {
			_ = f.Close()
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if !time.Now().Before(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s held by another process", ErrLock, path)
		}
		time.Sleep(lockRetryInterval)
	}
}

func tryLock(fd uintptr) error {
	return unix.FcntlFlock(fd, unix.F_SETLK, &unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(io.SeekStart),
	})
}

// lockBusy reports the errno values fcntl(2) uses for a lock held
// elsewhere. Both EAGAIN and EACCES occur in the wild.
func lockBusy(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES)
}

func (l *pwdLock) release() {
	_ = l.f.Close()
}
