package requestsRepo

import (
	"context"

	"counselhub/models"
)

// Repository manages the persisted list of booking requests. The whole list
// is read, mutated, and written back as one value; concurrent writers are
// last-writer-wins with no merge.
type Repository interface {
	// List returns every persisted request. A missing or corrupt payload is
	// treated as an empty list, never as an error.
	List(ctx context.Context) ([]models.BookingRequest, error)
	// Upsert inserts the request, or replaces the stored record with the
	// same ID.
	Upsert(ctx context.Context, req models.BookingRequest) error
	// Patch applies the non-nil fields of the patch to the request with the
	// given ID.
	Patch(ctx context.Context, id string, patch models.RequestPatch) error
	// HasPendingMeet reports whether any MEET request is still Pending.
	// This predicate is the wizard's pending lock.
	HasPendingMeet(ctx context.Context) (bool, error)
}
