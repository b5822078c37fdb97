package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"taxi-bot/internal/models"
	"taxi-bot/internal/storage"
)

var (
	ErrDenied         = errors.New("not a manager")
	ErrNotFound       = errors.New("user is not a manager")
	ErrAlreadyManager = errors.New("user is already a manager")
)

// Authorizer owns the manager set. While the set is empty (bootstrap mode)
// anyone may enroll managers; once it has members only they may change it.
// Removing the last manager is allowed and puts the set back in bootstrap.
type Authorizer struct {
	store *storage.Guarded
}

func New(store *storage.Guarded) *Authorizer {
	return &Authorizer{store: store}
}

func (a *Authorizer) Managers(ctx context.Context) ([]models.UserID, error) {
	var ids []models.UserID
	if _, err := a.store.Get(ctx, storage.KeyManagers, &ids); err != nil {
		return nil, fmt.Errorf("managers: %w", err)
	}
	return ids, nil
}

func (a *Authorizer) IsManager(ctx context.Context, id models.UserID) (bool, error) {
	ids, err := a.Managers(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Bootstrap reports whether the manager set is empty.
func (a *Authorizer) Bootstrap(ctx context.Context) (bool, error) {
	ids, err := a.Managers(ctx)
	if err != nil {
		return false, err
	}
	return len(ids) == 0, nil
}

func (a *Authorizer) AddManager(ctx context.Context, requester, target models.UserID) error {
	var ids []models.UserID
	err := a.store.Update(ctx, storage.KeyManagers, &ids, func(bool) error {
		if len(ids) > 0 && !slices.Contains(ids, requester) {
			return ErrDenied
		}
		if slices.Contains(ids, target) {
			return ErrAlreadyManager
		}
		ids = append(ids, target)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add manager %d: %w", target, err)
	}
	return nil
}

func (a *Authorizer) RemoveManager(ctx context.Context, requester, target models.UserID) error {
	var ids []models.UserID
	err := a.store.Update(ctx, storage.KeyManagers, &ids, func(bool) error {
		if !slices.Contains(ids, requester) {
			return ErrDenied
		}
		i := slices.Index(ids, target)
		if i < 0 {
			return ErrNotFound
		}
		ids = slices.Delete(ids, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove manager %d: %w", target, err)
	}
	return nil
}

// Seed enrolls ids only while the set is empty, so a configured list never
// overrides managers added at runtime. It reports whether anything was added.
func (a *Authorizer) Seed(ctx context.Context, ids []models.UserID) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	var cur []models.UserID
	seeded := false
	err := a.store.Update(ctx, storage.KeyManagers, &cur, func(bool) error {
		if len(cur) > 0 {
			return errSkip
		}
		for _, id := range ids {
			if !slices.Contains(cur, id) {
				cur = append(cur, id)
			}
		}
		seeded = true
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed managers: %w", err)
	}
	return seeded, nil
}

var errSkip = errors.New("skip")
