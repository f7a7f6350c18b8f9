// Package store keeps the node identity across power cycles.  File is for
// hosts with a filesystem; Flash writes A/B records straight to a flash
// block device.
package store

import (
	"fmt"

	"github.com/merliot/ranger"
)

// mount runs a medium's setup once and remembers the result
type mount struct {
	mu   mutex
	done bool
	err  error
}

func (m *mount) do(setup func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done {
		m.done = true
		if err := setup(); err != nil {
			m.err = &ranger.Error{Kind: ranger.KindStorageMount, Err: err}
		}
	}
	return m.err
}

func readErr(format string, args ...any) error {
	return &ranger.Error{Kind: ranger.KindStorageRead, Err: fmt.Errorf(format, args...)}
}

func writeErr(err error) error {
	return &ranger.Error{Kind: ranger.KindStorageWrite, Err: err}
}

func checkIdentity(id ranger.Identity) error {
	if !ranger.ValidIdentity(string(id)) {
		return writeErr(fmt.Errorf("refusing to store invalid identity %q", id))
	}
	return nil
}
