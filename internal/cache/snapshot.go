package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"plancal/internal/model"
)

// EventsKey is the entry holding the cached event collection.
const EventsKey = "calendar.cachedEvents"

// Snapshot is the cached collection together with the time it was written.
type Snapshot struct {
	Events   []model.Event `json:"events"`
	CachedAt time.Time     `json:"cachedAt"`
}

// LoadSnapshot reads the cached collection. It returns ErrNotFound when
// nothing was cached yet and a decode error for a corrupted entry.
func LoadSnapshot(kv KV) (Snapshot, error) {
	raw, err := kv.Get(EventsKey)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", EventsKey, err)
	}
	if snap.Events == nil {
		snap.Events = []model.Event{}
	}
	return snap, nil
}

// SaveSnapshot replaces the cached collection.
func SaveSnapshot(kv KV, events []model.Event, now time.Time) error {
	if events == nil {
		events = []model.Event{}
	}
	raw, err := json.Marshal(Snapshot{Events: events, CachedAt: now.UTC().Truncate(time.Second)})
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventsKey, err)
	}
	return kv.Set(EventsKey, raw)
}
