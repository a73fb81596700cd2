// SPDX-License-Identifier: MPL-2.0

package process

import (
	"fmt"
	"os"
	"sync"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

// chdirMu serializes working directory changes; the working directory is
// process-wide.
var chdirMu sync.Mutex

// Pushd changes the process working directory to dir and returns a function
// restoring the previous one. The caller must invoke popd exactly once;
// the lock taken by Pushd is held until then.
func Pushd(dir types.FilesystemPath) (popd func() error, err error) {
	if err := dir.Validate(); err != nil {
		return nil, err
	}

	chdirMu.Lock()
	prev, err := os.Getwd()
	if err != nil {
		chdirMu.Unlock()
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	if err := os.Chdir(string(dir)); err != nil {
		chdirMu.Unlock()
		return nil, fmt.Errorf("failed to enter %s: %w", dir, err)
	}

	var once sync.Once
	return func() error {
		var popErr error
		once.Do(func() {
			defer chdirMu.Unlock()
			if err := os.Chdir(prev); err != nil {
				popErr = fmt.Errorf("failed to restore directory %s: %w", prev, err)
			}
		})
		return popErr
	}, nil
}

// InDir runs fn with the working directory set to dir. The previous directory
// is restored when fn returns, fails or panics.
func InDir(dir types.FilesystemPath, fn func() error) (err error) {
	popd, err := Pushd(dir)
	if err != nil {
		return err
	}
	defer func() {
		if popErr := popd(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return fn()
}
