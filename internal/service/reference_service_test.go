package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

func TestReferenceService_LoadCaches(t *testing.T) {
	b := &fakeBackend{categories: []shopapi.Category{{ID: "c1", Name: "Skin"}}}
	svc := NewReferenceService(b, cache.NewReferenceCache(newTestStore(), time.Minute), &recordingNotifier{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		refs, err := svc.Load(ctx, testSession)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(refs.Categories) != 1 || len(refs.Manufacturers) != 1 {
			t.Fatalf("refs %+v", refs)
		}
	}
	if b.refCalls != 1 {
		t.Fatalf("backend called %d times", b.refCalls)
	}
}

func TestReferenceService_FailureNotifies(t *testing.T) {
	b := &fakeBackend{refErr: shopapi.ErrUnavailable}
	n := &recordingNotifier{}
	svc := NewReferenceService(b, cache.NewReferenceCache(newTestStore(), time.Minute), n)

	_, err := svc.Load(context.Background(), testSession)
	if !errors.Is(err, shopapi.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := n.last(); got.level != sse.LevelError || got.message != "Failed to load data" {
		t.Fatalf("notification %+v", got)
	}
}

func TestReferenceService_RefreshNeedsServiceToken(t *testing.T) {
	b := &fakeBackend{categories: []shopapi.Category{{ID: "c1", Name: "Skin"}}}
	refCache := cache.NewReferenceCache(newTestStore(), time.Minute)
	svc := NewReferenceService(b, refCache, &recordingNotifier{})
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if b.refCalls != 0 {
		t.Fatalf("backend called without a credential")
	}

	svc.SetServiceToken("svc-token")
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if b.refCalls != 1 || b.refToken != "svc-token" {
		t.Fatalf("calls %d token %q", b.refCalls, b.refToken)
	}
	if refs, err := refCache.Get(ctx); err != nil || len(refs.Categories) != 1 {
		t.Fatalf("cache not filled: %+v %v", refs, err)
	}
}

func TestReferenceService_RefreshRejectedKeepsCache(t *testing.T) {
	b := &fakeBackend{categories: []shopapi.Category{{ID: "c1", Name: "Skin"}}}
	refCache := cache.NewReferenceCache(newTestStore(), time.Minute)
	svc := NewReferenceService(b, refCache, &recordingNotifier{})
	svc.SetServiceToken("svc-token")
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	b.refErr = shopapi.ErrRejected
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("rejected refresh should be skipped: %v", err)
	}
	if refs, err := refCache.Get(ctx); err != nil || len(refs.Categories) != 1 {
		t.Fatalf("cache lost: %+v %v", refs, err)
	}
}
