// Package storage holds the persistence adapters of the simulation: world
// checkpoints (JSON file or SQLite), the SQLite content store and the audit
// trail of resolved events.
package storage

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
)

const (
	// SchemaVersion is the layout of a store: the file envelope or the SQLite tables.
	SchemaVersion = 2
	// SaveVersion is the format of the world payload inside a store.
	SaveVersion = 3

	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// ErrNoWorld is returned by Load when nothing has been saved yet.
var ErrNoWorld = errors.New("storage: no saved world")

// SchemaError reports a store written by a newer build, or one this build
// cannot read at all.
type SchemaError struct {
	Store    string
	Field    string // schema_version or save_version
	Expected int
	Found    int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s store: %s %d is newer than supported %d", e.Store, e.Field, e.Found, e.Expected)
}

func checkVersions(store string, schema, save int) error {
	if schema > SchemaVersion {
		return &SchemaError{Store: store, Field: "schema_version", Expected: SchemaVersion, Found: schema}
	}
	if save > SaveVersion {
		return &SchemaError{Store: store, Field: "save_version", Expected: SaveVersion, Found: save}
	}
	return nil
}

// upgrades[v] lifts a payload from save version v to v+1. Every step only
// adds data, so older saves load with default values for the new fields.
var upgrades = map[int]func(*world.State){
	// v1 calendars stored day and hour only.
	1: func(w *world.State) {
		if w.Time.Day < 1 {
			w.Time.Day = 1
		}
		w.Time.Week = (w.Time.Day-1)/7 + 1
		w.Time.Month = (w.Time.Day-1)/30 + 1
	},
	// v2 had no story slice and no faction proxies.
	2: func(w *world.State) {
		w.Normalize()
	},
}

// upgrade brings a decoded world from version found to SaveVersion.
func upgrade(w *world.State, found int) {
	if found < 1 {
		found = 1
	}
	for v := found; v < SaveVersion; v++ {
		if step, ok := upgrades[v]; ok {
			step(w)
		}
	}
	w.Normalize()
}
