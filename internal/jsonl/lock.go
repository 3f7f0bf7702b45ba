package jsonl

import (
	"os"
	"syscall"
)

// lockFile takes a blocking advisory lock on the open file: exclusive for
// writers, shared for scanners. The lock is tied to the descriptor and is
// also released implicitly when the file is closed.
func lockFile(f *os.File, exclusive bool) error {
	how := syscall.LOCK_SH
	if exclusive {
		how = syscall.LOCK_EX
	}
	return syscall.Flock(int(f.Fd()), how)
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
