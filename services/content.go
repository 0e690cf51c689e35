package services

import (
	"context"
	"errors"

	"github.com/canvaslite/backend/model"
	"gorm.io/gorm"
)

// Content is the resolved target of a module item. Exactly one of the
// typed fields is set when Known is true; an unrecognized kind resolves
// to Known=false instead of an error so stale rows render a fallback
// instead of breaking navigation.
type Content struct {
	Kind       model.ContentKind `json:"kind"`
	Known      bool              `json:"known"`
	Page       *model.Page       `json:"page,omitempty"`
	Assignment *model.Assignment `json:"assignment,omitempty"`
}

// Title returns the display title of the resolved content
func (c Content) Title() string {
	switch {
	case c.Page != nil:
		return c.Page.Title
	case c.Assignment != nil:
		return c.Assignment.Title
	}
	return ""
}

// ContentResolver looks up the row a module item points at
type ContentResolver struct {
	db *gorm.DB
}

// NewContentResolver creates a new content resolver
func NewContentResolver(db *gorm.DB) *ContentResolver {
	return &ContentResolver{db: db}
}

// Resolve fetches the content behind a (kind, id) reference. The kind set
// is closed; kinds outside it return a not-Known Content with no error.
// A known kind whose row is gone returns ErrNotFound.
func (r *ContentResolver) Resolve(ctx context.Context, kind model.ContentKind, contentID uint) (Content, error) {
	switch kind {
	case model.ContentPage:
		var page model.Page
		if err := r.db.WithContext(ctx).First(&page, contentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Content{Kind: kind}, ErrNotFound
			}
			return Content{Kind: kind}, err
		}
		return Content{Kind: kind, Known: true, Page: &page}, nil

	case model.ContentAssignment:
		var assignment model.Assignment
		if err := r.db.WithContext(ctx).Preload("Quiz").First(&assignment, contentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Content{Kind: kind}, ErrNotFound
			}
			return Content{Kind: kind}, err
		}
		return Content{Kind: kind, Known: true, Assignment: &assignment}, nil
	}

	return Content{Kind: kind}, nil
}

// ResolveItem resolves the content of a module item
func (r *ContentResolver) ResolveItem(ctx context.Context, item *model.ModuleItem) (Content, error) {
	return r.Resolve(ctx, item.ContentType, item.ContentID)
}
