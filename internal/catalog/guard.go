package catalog

import (
	"context"
	"errors"
	"fmt"

	"telegram-catalog/internal/models"
)

// MaxAncestorDepth bounds the ancestor walk. A cycle further up than this is
// not detected.
const MaxAncestorDepth = 10

var (
	ErrSelfChild         = errors.New("A category cannot be its own child.")
	ErrCircularReference = errors.New("Check children for circular reference.")
	ErrTooManyChildren   = fmt.Errorf("A category cannot have more than %d children.", models.MaxCategoryChildren)
)

// ParentFinder returns the ids of the bot's categories that have any of
// childIDs as a direct child.
type ParentFinder interface {
	ParentIDs(ctx context.Context, bot string, childIDs []uint) ([]uint, error)
}

// Guard keeps the category graph acyclic.
type Guard struct {
	parents  ParentFinder
	maxDepth int
}

func NewGuard(parents ParentFinder) *Guard {
	return &Guard{parents: parents, maxDepth: MaxAncestorDepth}
}

// ValidateChildren checks a proposed child set for categoryID before it is
// saved. categoryID 0 means the category is not persisted yet, so only the
// size limit applies. Repeated ids count once.
func (g *Guard) ValidateChildren(ctx context.Context, bot string, categoryID uint, childIDs []uint) error {
	childIDs = unique(childIDs)
	if len(childIDs) > models.MaxCategoryChildren {
		return ErrTooManyChildren
	}
	if categoryID == 0 || len(childIDs) == 0 {
		return nil
	}

	proposed := make(map[uint]struct{}, len(childIDs))
	for _, id := range childIDs {
		if id == categoryID {
			return ErrSelfChild
		}
		proposed[id] = struct{}{}
	}

	visited := map[uint]struct{}{categoryID: {}}
	frontier := []uint{categoryID}
	for depth := 0; depth < g.maxDepth && len(frontier) > 0; depth++ {
		parents, err := g.parents.ParentIDs(ctx, bot, frontier)
		if err != nil {
			return fmt.Errorf("load parents: %w", err)
		}

		var next []uint
		for _, id := range parents {
			if _, ok := proposed[id]; ok {
				return ErrCircularReference
			}
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			next = append(next, id)
		}
		frontier = next
	}

	// depth exhausted without a hit: treated as valid
	return nil
}

// IsViolation reports whether err is one of the guard's validation errors.
func IsViolation(err error) bool {
	return errors.Is(err, ErrSelfChild) ||
		errors.Is(err, ErrCircularReference) ||
		errors.Is(err, ErrTooManyChildren)
}
