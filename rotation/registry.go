package rotation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// =============================================================================
// SCHEDULE REGISTRY
// =============================================================================
//
// Reward tables name schedules by ID ("mid_month", "month_start"). The
// registry maps those IDs back to concrete schedules.

var (
	registry   = make(map[string]Schedule)
	registryMu sync.RWMutex
)

func init() {
	Register(MidMonth{Day: AbyssResetDay})
	Register(MonthStart{})
}

// Register adds s to the registry, replacing any schedule with the same ID.
func Register(s Schedule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.ID()] = s
}

// Lookup finds a registered schedule by ID.
func Lookup(id string) (Schedule, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchedule, id)
	}
	return s, nil
}

// MustLookup finds a registered schedule or panics.
// Use in tests or for IDs registered by this package.
func MustLookup(id string) Schedule {
	s, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return s
}

// IDs returns the registered schedule IDs in sorted order.
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := lo.Keys(registry)
	sort.Strings(ids)
	return ids
}
