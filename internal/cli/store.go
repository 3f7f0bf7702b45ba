package cli

import (
	"errors"
	"os"

	taskstore "github.com/roach88/taskstore"
)

// openStore opens the store at the configured directory. Read-oriented
// commands refuse to invent a store that is not there, so a bad --store path
// fails instead of silently creating an empty directory.
func openStore(opts *RootOptions, mustExist bool) (*taskstore.Store, error) {
	if mustExist {
		info, err := os.Stat(opts.StoreDir)
		if err != nil || !info.IsDir() {
			return nil, NewExitError(ExitCommandError, "store directory not found: "+opts.StoreDir)
		}
	}
	s, err := taskstore.Open(opts.StoreDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return s, nil
}

// errorCode maps a store error to the CLI response code.
func errorCode(err error) string {
	var se *taskstore.Error
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "INTERNAL"
}
