package widget

import (
	"sync"

	"github.com/consently/consent-management-api/pkg/utils"
)

const (
	// VisitorIDKey is the storage key of the pseudonymous visitor identifier
	VisitorIDKey = "consently_visitor_id"
	// VisitorIDTTLDays keeps the identifier for roughly ten years
	VisitorIDTTLDays = 3650
)

// VisitorIdentity hands out the long-lived visitor identifier of one storage profile
type VisitorIdentity struct {
	storage *Storage
	newID   func() string

	mu     sync.Mutex
	cached string
}

// NewVisitorIdentity creates an identity bound to storage
func NewVisitorIdentity(storage *Storage) *VisitorIdentity {
	return &VisitorIdentity{storage: storage, newID: utils.GenerateVisitorID}
}

// GetOrCreate returns the stored identifier, generating and persisting one when absent.
// Repeated calls return the same value even if the backend refuses writes.
func (v *VisitorIdentity) GetOrCreate() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var id string
	if v.storage.Get(VisitorIDKey, &id) && id != "" {
		v.cached = id
		return id
	}
	if v.cached == "" {
		v.cached = v.newID()
	}
	v.storage.Set(VisitorIDKey, v.cached, VisitorIDTTLDays)
	return v.cached
}

// Forget drops the identifier so the next GetOrCreate issues a new one
func (v *VisitorIdentity) Forget() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cached = ""
	v.storage.Delete(VisitorIDKey)
}
