//go:build unix

package splice

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// flockLocker takes a whole-file exclusive flock on the open file description.
type flockLocker struct{}

func (flockLocker) Lock(f *os.File) error {
	return flock(f, unix.LOCK_EX)
}

func (flockLocker) Unlock(f *os.File) error {
	return flock(f, unix.LOCK_UN)
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

func defaultLocker() Locker {
	return flockLocker{}
}
