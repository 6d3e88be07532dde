// Package entropy provides safe entropy and ULID generation for
// concurrent tasks.
package entropy

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// safeMonotonicReader provides a safe entropy to be used in concurrent tasks.
// https://github.com/oklog/ulid/blob/0d4fda9d6345755e157a256fd33d48556c5f4a7a/ulid_test.go#L633-L636
type safeMonotonicReader struct {
	mtx sync.Mutex
	ulid.MonotonicReader
}

func (r *safeMonotonicReader) MonotonicRead(ms uint64, p []byte) (err error) {
	r.mtx.Lock()
	err = r.MonotonicReader.MonotonicRead(ms, p)
	r.mtx.Unlock()

	return err
}

// Read is guarded by the same lock as MonotonicRead.
func (r *safeMonotonicReader) Read(p []byte) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.MonotonicReader.Read(p)
}

// New returns a new MonotonicReader.
func New() ulid.MonotonicReader {
	// nolint:gosec // crypto/rand not necessary for ULID generation
	monotonic := ulid.Monotonic(rand.New(
		rand.NewSource(time.Now().UnixNano()),
	), 0)

	return &safeMonotonicReader{MonotonicReader: monotonic}
}

// ID returns a new ULID string. A nil reader falls back to
// ulid.DefaultEntropy.
func ID(r io.Reader) (string, error) {
	if r == nil {
		r = ulid.DefaultEntropy()
	}

	id, err := ulid.New(ulid.Now(), r)
	if err != nil {
		return "", errors.Wrap(err, "cannot generate unique ID")
	}

	return id.String(), nil
}
