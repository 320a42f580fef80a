package blob

import (
	"context"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type SettingsRepository struct {
	c *collection[model.UserSettings]
}

func NewSettingsRepository(store blobstore.Store, key string) *SettingsRepository {
	return &SettingsRepository{
		c: newCollection(store, key, func(s *model.UserSettings) string { return s.UserID }),
	}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	return r.c.get(ctx, userID)
}

// Save inserts or replaces the settings of one user.
func (r *SettingsRepository) Save(ctx context.Context, settings *model.UserSettings) error {
	return r.c.mutate(ctx, func(items []*model.UserSettings) ([]*model.UserSettings, error) {
		for i, item := range items {
			if item.UserID == settings.UserID {
				items[i] = settings
				return items, nil
			}
		}
		return append(items, settings), nil
	})
}

func (r *SettingsRepository) Upsert(
	ctx context.Context,
	userID string,
	init func() *model.UserSettings,
	fn func(*model.UserSettings) error,
) (*model.UserSettings, error) {
	var out *model.UserSettings
	err := r.c.mutate(ctx, func(items []*model.UserSettings) ([]*model.UserSettings, error) {
		for _, item := range items {
			if item.UserID == userID {
				if err := fn(item); err != nil {
					return nil, err
				}
				out = item
				return items, nil
			}
		}

		fresh := init()
		fresh.UserID = userID
		if err := fn(fresh); err != nil {
			return nil, err
		}
		out = fresh
		return append(items, fresh), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
