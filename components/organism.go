package components

import "github.com/patrikandersson91/ecosystem-sub000/store"

// Agent links a controller entity to its store record.
type Agent struct {
	ID      store.EntityID
	Species store.Species
}

// Needs is the controller's local copy of hunger and thirst.
// Values decay every tick and are pushed to the store periodically.
type Needs struct {
	Hunger    float64
	Thirst    float64
	Rev       uint32  // last store NeedsRev adopted
	SyncTimer float64 // seconds until the next needs sync
}
