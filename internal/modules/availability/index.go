// Package availability keeps the coarse per-car "currently held by an
// active booking" flag. It is a derived cache: the booking ledger is its
// only writer, and date-range conflict checking stays in the ledger.
package availability

import (
	"errors"
	"sync"
)

var ErrCarNotTracked = errors.New("car is not tracked by the availability index")

type Index struct {
	mu   sync.RWMutex
	cars map[int64]bool
}

func NewIndex() *Index {
	return &Index{cars: make(map[int64]bool)}
}

// Track registers a car with its initial availability. Re-tracking an
// already known car overwrites the flag.
func (i *Index) Track(carID int64, available bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cars[carID] = available
}

// Forget drops a car from the index (car deleted or deactivated).
func (i *Index) Forget(carID int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.cars, carID)
}

func (i *Index) IsAvailable(carID int64) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.cars[carID]
	if !ok {
		return false, ErrCarNotTracked
	}
	return v, nil
}

// Set flips the availability flag. Idempotent; concurrent calls for the
// same car serialize on the index lock so no update is lost.
func (i *Index) Set(carID int64, available bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.cars[carID]; !ok {
		return ErrCarNotTracked
	}
	i.cars[carID] = available
	return nil
}

// Snapshot returns a copy of the current flags for listing purposes.
func (i *Index) Snapshot() map[int64]bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[int64]bool, len(i.cars))
	for k, v := range i.cars {
		out[k] = v
	}
	return out
}
