package services

import (
	"testing"

	"github.com/canvaslite/backend/model"
)

func TestNeighborsIn(t *testing.T) {
	// Two modules worth of items, already in traversal order:
	// module 1 holds items 10 and 11, module 2 holds items 20 and 21.
	sequence := []model.ModuleItem{
		{ID: 10, ModuleID: 1, Position: 1},
		{ID: 11, ModuleID: 1, Position: 2},
		{ID: 20, ModuleID: 2, Position: 1},
		{ID: 21, ModuleID: 2, Position: 2},
	}

	tests := []struct {
		name     string
		itemID   uint
		wantPrev uint // 0 means nil
		wantNext uint // 0 means nil
	}{
		{"first item has no previous", 10, 0, 11},
		{"middle item inside a module", 11, 10, 20},
		{"navigation crosses module boundaries", 20, 11, 21},
		{"last item has no next", 21, 20, 0},
		{"unknown item yields no neighbors", 99, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := NeighborsIn(sequence, tt.itemID)

			if tt.wantPrev == 0 {
				if prev != nil {
					t.Errorf("expected no previous item, got id %d", prev.ID)
				}
			} else if prev == nil || prev.ID != tt.wantPrev {
				t.Errorf("previous = %v, want id %d", prev, tt.wantPrev)
			}

			if tt.wantNext == 0 {
				if next != nil {
					t.Errorf("expected no next item, got id %d", next.ID)
				}
			} else if next == nil || next.ID != tt.wantNext {
				t.Errorf("next = %v, want id %d", next, tt.wantNext)
			}
		})
	}
}

func TestNeighborsInSingleItem(t *testing.T) {
	sequence := []model.ModuleItem{{ID: 7, ModuleID: 3, Position: 1}}

	prev, next := NeighborsIn(sequence, 7)
	if prev != nil || next != nil {
		t.Errorf("single-item sequence should have no neighbors, got prev=%v next=%v", prev, next)
	}
}

func TestNeighborsInEmptySequence(t *testing.T) {
	prev, next := NeighborsIn(nil, 1)
	if prev != nil || next != nil {
		t.Errorf("empty sequence should yield no neighbors, got prev=%v next=%v", prev, next)
	}
}
