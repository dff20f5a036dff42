package grants

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireApplyLock takes the exclusive apply lock under the state directory.
// It keeps two concurrent apply runs from interleaving policy writes against
// the same server. The caller must Unlock the returned lock.
func AcquireApplyLock(stateDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %q: %w", stateDir, err)
	}

	lock := flock.New(filepath.Join(stateDir, "apply.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire apply lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another apply run is already in progress")
	}
	return lock, nil
}
