package store

import (
	"context"
	"errors"
	"fmt"

	"financas/internal/core"
)

// Seed stores the household and, when it has no categories yet, its
// default categories. Running it again is a no-op apart from the upsert.
func Seed(ctx context.Context, s *Store, h core.Household) (int, error) {
	if err := h.Validate(); err != nil {
		return 0, fmt.Errorf("seed household: %w", err)
	}
	if err := s.Households.Upsert(ctx, h); err != nil {
		return 0, fmt.Errorf("seed household: %w", err)
	}
	existing, err := s.Categories.FetchAll(ctx, h.ID)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	created := 0
	for _, c := range core.DefaultCategories(h.ID) {
		if _, err := s.Categories.Create(ctx, c); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		created++
	}
	return created, nil
}
