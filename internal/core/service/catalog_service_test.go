package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/minimall/api/internal/core/domain"
)

func TestGetItem_NotFound(t *testing.T) {
	items, options := testCatalog()
	svc := NewCatalogService(newMemStore(items, options), nil, zap.NewNop())

	_, err := svc.GetItem(context.Background(), 42)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestGetItem_SoftDeletedHidden(t *testing.T) {
	items, options := testCatalog()
	items[0].Deleted = true
	svc := NewCatalogService(newMemStore(items, options), nil, zap.NewNop())

	_, err := svc.GetItem(context.Background(), 1)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected soft-deleted item to be hidden, got %v", err)
	}
}

func TestListOptions_CacheOverlay(t *testing.T) {
	items, options := testCatalog()
	cache := newRecordingCache()
	cache.stocks[1] = 4 // committed snapshot differs from the stale row
	svc := NewCatalogService(newMemStore(items, options), cache, zap.NewNop())

	got, err := svc.ListOptions(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListOptions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 options, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].StockQuantity != 4 {
		t.Errorf("expected cached stock 4 for option 1, got %+v", got[0])
	}
	// Option 2 has no cache entry: the store value stands.
	if got[1].ID != 2 || got[1].StockQuantity != 5 {
		t.Errorf("expected store stock 5 for option 2, got %+v", got[1])
	}
}

func TestListOptions_UnknownItem(t *testing.T) {
	items, options := testCatalog()
	svc := NewCatalogService(newMemStore(items, options), nil, zap.NewNop())

	_, err := svc.ListOptions(context.Background(), 42)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestListItems_Paging(t *testing.T) {
	items, options := testCatalog()
	svc := NewCatalogService(newMemStore(items, options), nil, zap.NewNop())

	page1, err := svc.ListItems(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != 1 || page1[1].ID != 2 {
		t.Errorf("unexpected first page: %+v", page1)
	}

	page2, err := svc.ListItems(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(page2) != 1 || page2[0].ID != 3 {
		t.Errorf("unexpected second page: %+v", page2)
	}
}
