// Package id generates run identifiers. Ids are ULIDs: 26 characters,
// sortable by creation time, safe as SQLite keys and file names.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// monotonic so ids made in the same millisecond still sort in order
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a run id stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns a run id stamped with t. Sweeps use one t for every
// parameter set so their ids sort together.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// only on entropy failure or a time before 1970
		panic(err)
	}
	return id.String()
}

// Time returns the creation time encoded in a run id.
func Time(runID string) (time.Time, error) {
	id, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}

// Valid reports whether s is a well formed run id.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
