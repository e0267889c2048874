package service

import (
	"context"
	"database/sql"
	"errors"

	"doclib/internal/gate"
	"doclib/internal/model"
	"doclib/internal/repository"
)

// ReorderService persists a scope's manual display order.
type ReorderService interface {
	// Reorder replaces the scope's positions with the submitted order. The
	// id list must be a permutation of the scope's current membership; any
	// missing, extra, duplicate or foreign id fails the whole call and the
	// previous order stays in place.
	Reorder(ctx context.Context, identity model.Identity, scope model.Scope, orderedIDs []string) error
}

type reorderService struct {
	docs       repository.DocumentRepository
	categories repository.CategoryRepository
	locks      *ScopeLocks
}

// NewReorderService wires the reorder path.
func NewReorderService(docs repository.DocumentRepository, categories repository.CategoryRepository, locks *ScopeLocks) ReorderService {
	return &reorderService{docs: docs, categories: categories, locks: locks}
}

func (s *reorderService) Reorder(ctx context.Context, identity model.Identity, scope model.Scope, orderedIDs []string) error {
	if err := gate.RequireOperator(identity); err != nil {
		return err
	}
	if _, _, err := s.categories.ResolveScope(ctx, scope.CategoryID, scope.SubcategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	if err := s.docs.Reorder(ctx, scope, orderedIDs); err != nil {
		if errors.Is(err, repository.ErrScopeMembersChanged) {
			return ErrInvalidOrder
		}
		return err
	}
	return nil
}
