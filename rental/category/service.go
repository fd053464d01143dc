// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package category

import (
	"context"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
)

var mon = monkit.Package()

// Service implements the category hierarchy engine.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	store Store
}

// NewService creates a new category service.
func NewService(log *zap.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Get returns a category by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Category, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Categories().Get(ctx, id)
}

// List returns all categories.
func (s *Service) List(ctx context.Context) (_ []Category, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Categories().All(ctx)
}

// Create creates a new category after checking name uniqueness among
// non-deleted rows and that the parent exists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (created *Category, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrValidation.New("name is required")
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		existing, err := tx.Categories().GetByName(ctx, req.Name)
		if err != nil && !ErrNotFound.Has(err) {
			return err
		}
		if existing != nil {
			return ErrNameTaken.New("%q", req.Name)
		}
		if req.ParentID != nil {
			if _, err := tx.Categories().Get(ctx, *req.ParentID); err != nil {
				return err
			}
		}
		created, err = tx.Categories().Create(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a patch to a category. Parent reassignment is guarded
// against cycles by walking upward from the proposed parent.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (updated *Category, err error) {
	defer mon.Task()(&ctx)(&err)

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, ErrValidation.New("name is required")
		}
		req.Name = &trimmed
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		subject, err := tx.Categories().Get(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil && *req.Name != subject.Name {
			existing, err := tx.Categories().GetByName(ctx, *req.Name)
			if err != nil && !ErrNotFound.Has(err) {
				return err
			}
			if existing != nil && existing.ID != id {
				return ErrNameTaken.New("%q", *req.Name)
			}
		}

		if req.ParentID != nil {
			if *req.ParentID == id {
				return ErrValidation.New("category cannot be its own parent")
			}
			all, err := tx.Categories().All(ctx)
			if err != nil {
				return err
			}
			if hasAncestor(all, *req.ParentID, id) {
				return ErrValidation.New("category cannot be its own ancestor")
			}
		}

		updated, err = tx.Categories().Update(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a category. It refuses while the category still owns
// non-deleted equipment or subcategories.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Categories().Get(ctx, id); err != nil {
			return err
		}
		hasEquipment, err := tx.Categories().HasEquipment(ctx, id)
		if err != nil {
			return err
		}
		if hasEquipment {
			return ErrInUse.New("category still has equipment")
		}
		hasChildren, err := tx.Categories().HasSubcategories(ctx, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return ErrInUse.New("category still has subcategories")
		}
		return tx.Categories().SoftDelete(ctx, id)
	})
}

// GetChildren returns the direct children of a category.
func (s *Service) GetChildren(ctx context.Context, id int64) (_ []Category, err error) {
	defer mon.Task()(&ctx)(&err)

	all, err := s.store.Categories().All(ctx)
	if err != nil {
		return nil, err
	}
	var children []Category
	for _, c := range all {
		if c.ParentID != nil && *c.ParentID == id {
			children = append(children, c)
		}
	}
	return children, nil
}

// GetAllSubcategoryIDs returns the id itself plus every transitive descendant,
// in breadth-first order. Equipment filters use this so that listing a parent
// category includes equipment of all descendants.
func (s *Service) GetAllSubcategoryIDs(ctx context.Context, id int64) (_ []int64, err error) {
	defer mon.Task()(&ctx)(&err)

	all, err := s.store.Categories().All(ctx)
	if err != nil {
		return nil, err
	}

	childrenOf := make(map[int64][]int64)
	for _, c := range all {
		if c.ParentID != nil {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c.ID)
		}
	}

	ids := []int64{id}
	for queue := []int64{id}; len(queue) > 0; {
		current := queue[0]
		queue = queue[1:]
		for _, child := range childrenOf[current] {
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}
	return ids, nil
}

// GetPathFromRoot returns the ordered chain [root, ..., id].
func (s *Service) GetPathFromRoot(ctx context.Context, id int64) (_ []Category, err error) {
	defer mon.Task()(&ctx)(&err)

	all, err := s.store.Categories().All(ctx)
	if err != nil {
		return nil, err
	}
	byID := indexByID(all)
	if _, ok := byID[id]; !ok {
		return nil, ErrNotFound.New("id %d", id)
	}

	var path []Category
	current, ok := byID[id]
	for ok {
		path = append([]Category{current}, path...)
		if current.ParentID == nil {
			break
		}
		current, ok = byID[*current.ParentID]
	}
	return path, nil
}

// GetPrintHierarchyAndSortPath derives the full sort path and the printable
// subset of a category's chain from root.
//
// Printable nodes are the chain entries with ShowInPrintOverview set,
// re-leveled from 1 in path order. When the chain is non-empty but nothing is
// marked printable, the root alone is emitted at level 1.
func (s *Service) GetPrintHierarchyAndSortPath(ctx context.Context, id *int64) (sortPath, printable []PathNode, err error) {
	defer mon.Task()(&ctx)(&err)

	if id == nil {
		return []PathNode{}, []PathNode{}, nil
	}

	path, err := s.GetPathFromRoot(ctx, *id)
	if err != nil {
		return nil, nil, err
	}

	sortPath = make([]PathNode, 0, len(path))
	for i, c := range path {
		sortPath = append(sortPath, PathNode{ID: c.ID, Name: c.Name, Level: i + 1})
	}

	printable = []PathNode{}
	level := 1
	for _, c := range path {
		if c.ShowInPrintOverview {
			printable = append(printable, PathNode{ID: c.ID, Name: c.Name, Level: level})
			level++
		}
	}
	if len(printable) == 0 && len(path) > 0 {
		root := path[0]
		printable = append(printable, PathNode{ID: root.ID, Name: root.Name, Level: 1})
	}
	return sortPath, printable, nil
}

// ListWithEquipmentCount returns every category annotated with the count of
// its direct non-deleted equipment.
func (s *Service) ListWithEquipmentCount(ctx context.Context) (_ []WithEquipmentCount, err error) {
	defer mon.Task()(&ctx)(&err)

	all, err := s.store.Categories().All(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.Categories().CountEquipment(ctx)
	if err != nil {
		return nil, err
	}

	annotated := make([]WithEquipmentCount, 0, len(all))
	for _, c := range all {
		annotated = append(annotated, WithEquipmentCount{Category: c, EquipmentCount: counts[c.ID]})
	}
	return annotated, nil
}

// hasAncestor walks upward from startID and reports whether subjectID is
// encountered in the parent chain.
func hasAncestor(all []Category, startID, subjectID int64) bool {
	byID := indexByID(all)
	seen := make(map[int64]bool)
	current, ok := byID[startID]
	for ok && !seen[current.ID] {
		if current.ID == subjectID {
			return true
		}
		seen[current.ID] = true
		if current.ParentID == nil {
			return false
		}
		current, ok = byID[*current.ParentID]
	}
	return false
}

func indexByID(all []Category) map[int64]Category {
	byID := make(map[int64]Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	return byID
}
