// Package idx generates the ULIDs used to tie together the log lines of a
// single login attempt.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out ULIDs from a monotonic source. ulid.MonotonicEntropy
// is not safe for concurrent use, so every read goes through mu.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := ulid.MustNew(ulid.Timestamp(t), g.entropy)
	return ID(u.String())
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a lexicographically sortable ID stamped with the current UTC time.
func New() ID {
	return newID(time.Now().UTC())
}

func newID(t time.Time) ID {
	globalOnce.Do(initGlobal)
	return global.newAt(t)
}

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
