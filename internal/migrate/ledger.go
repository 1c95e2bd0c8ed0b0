package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// RollbackLedger records completed relocations (new path → original path) so
// a failing migration can move every file back. Inserts are safe from
// multiple tasks; each task must record a rename before starting the next
// one, so a concurrently failing sibling always finds it.
type RollbackLedger struct {
	mu      sync.Mutex
	entries map[string]string // new path → original path
}

// NewRollbackLedger creates an empty ledger.
func NewRollbackLedger() *RollbackLedger {
	return &RollbackLedger{entries: make(map[string]string)}
}

// Record remembers one completed rename.
func (l *RollbackLedger) Record(newPath, originalPath string) {
	l.mu.Lock()
	l.entries[newPath] = originalPath
	l.mu.Unlock()
}

// Len returns the number of recorded relocations.
func (l *RollbackLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the recorded mapping.
func (l *RollbackLedger) Entries() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Unwind renames every recorded file back to its original path. An entry
// whose new path no longer exists is skipped: either it was already
// reversed, or the rename never completed. Entries are independent, so
// reversal order does not matter and individual failures do not stop the
// rest; all failures are joined into one error.
func (l *RollbackLedger) Unwind(ctx context.Context, fs fsio.FileIO) error {
	var errs []error
	for newPath, origin := range l.Entries() {
		exists, err := fs.Exists(ctx, newPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("check %s: %w", newPath, err))
			continue
		}
		if !exists {
			continue
		}
		if err := fs.Rename(ctx, newPath, origin); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", origin, err))
		}
	}
	return errors.Join(errs...)
}
