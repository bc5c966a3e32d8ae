package requestsRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"counselhub/database/kv"
	"counselhub/models"
	"counselhub/utils"
)

// RequestListKey is the fixed key the request list lives under.
const RequestListKey = "counselhub:requests"

// KVRepository implements Repository over the key/value port.
type KVRepository struct {
	store kv.Store
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) List(ctx context.Context) ([]models.BookingRequest, error) {
	raw, err := r.store.Get(ctx, RequestListKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []models.BookingRequest{}, nil
		}
		return nil, fmt.Errorf("failed to read request list: %w", err)
	}

	var list []models.BookingRequest
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// Corrupt payload: treat as absent rather than propagating.
		utils.GetLogger().Warn("Corrupt request list payload, falling back to empty",
			zap.Error(err))
		return []models.BookingRequest{}, nil
	}
	return list, nil
}

func (r *KVRepository) save(ctx context.Context, list []models.BookingRequest) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal request list: %w", err)
	}
	if err := r.store.Set(ctx, RequestListKey, string(data)); err != nil {
		return fmt.Errorf("failed to save request list: %w", err)
	}
	return nil
}

func (r *KVRepository) Upsert(ctx context.Context, req models.BookingRequest) error {
	list, err := r.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == req.ID {
			list[i] = req
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, req)
	}
	return r.save(ctx, list)
}

func (r *KVRepository) Patch(ctx context.Context, id string, patch models.RequestPatch) error {
	list, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if patch.Status != nil {
			list[i].Status = *patch.Status
		}
		if patch.CompletedAt != nil {
			list[i].CompletedAt = patch.CompletedAt
		}
		if patch.CanceledAt != nil {
			list[i].CanceledAt = patch.CanceledAt
		}
		return r.save(ctx, list)
	}
	return fmt.Errorf("no request with id %s", id)
}

func (r *KVRepository) HasPendingMeet(ctx context.Context) (bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, req := range list {
		if req.Type == models.RequestTypeMeet && req.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}
