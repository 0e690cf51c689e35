package services

import (
	"context"

	"github.com/canvaslite/backend/model"
	"gorm.io/gorm"
)

// SequenceService computes Canvas-style previous/next navigation across
// all module items of a course. The sequence is rebuilt on every call so
// positions are never stale after an edit.
type SequenceService struct {
	db *gorm.DB
}

// NewSequenceService creates a new sequence service
func NewSequenceService(db *gorm.DB) *SequenceService {
	return &SequenceService{db: db}
}

// CourseSequence returns every module item of a course in traversal
// order: module position, then module id, then item position, then item
// id. Ties on position fall back to ids, so the order is total.
func (s *SequenceService) CourseSequence(ctx context.Context, courseID uint) ([]model.ModuleItem, error) {
	var items []model.ModuleItem
	err := s.db.WithContext(ctx).
		Joins("JOIN modules ON modules.id = module_items.module_id").
		Where("modules.course_id = ? AND modules.deleted_at IS NULL", courseID).
		Order("modules.position ASC, module_items.module_id ASC, module_items.position ASC, module_items.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Neighbors returns the items immediately before and after the given item
// in the course-wide sequence. Either neighbor is nil at a boundary. If
// the item is not in the sequence (e.g., deleted under us), both are nil.
func (s *SequenceService) Neighbors(ctx context.Context, courseID, itemID uint) (*model.ModuleItem, *model.ModuleItem, error) {
	items, err := s.CourseSequence(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	prev, next := NeighborsIn(items, itemID)
	return prev, next, nil
}

// NeighborsIn locates itemID in an already-ordered sequence and returns
// its neighbors
func NeighborsIn(items []model.ModuleItem, itemID uint) (*model.ModuleItem, *model.ModuleItem) {
	index := -1
	for i := range items {
		if items[i].ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, nil
	}

	var prev, next *model.ModuleItem
	if index > 0 {
		prev = &items[index-1]
	}
	if index < len(items)-1 {
		next = &items[index+1]
	}
	return prev, next
}
