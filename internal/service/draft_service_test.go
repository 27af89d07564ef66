package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/storage"
	"github.com/Lwan2205/storefront/internal/utils"
)

type rejectAll struct{}

func (rejectAll) Check(context.Context, []byte) error { return utils.ErrImageRejected }

func newDraftService(t *testing.T, mod ImageModerator) (*DraftService, *storage.Local) {
	t.Helper()
	images := storage.NewLocal(t.TempDir(), "/uploads")
	return NewDraftService(cache.NewDraftCache(newTestStore(), time.Hour), &fakeBackend{}, images, mod, 16), images
}

func TestDraftService_PatchIsAllOrNothing(t *testing.T) {
	svc, _ := newDraftService(t, NopModerator{})
	ctx := context.Background()
	d, _ := svc.Create(ctx, testSession)

	_, err := svc.Patch(ctx, testSession, d.ID, map[string]string{"name": "Cream", "price": "cheap"})
	if !errors.Is(err, utils.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	got, _ := svc.Get(ctx, testSession, d.ID)
	if got.Name != "" {
		t.Fatalf("partial patch persisted: %+v", got)
	}
}

func TestDraftService_StaleKeyAfterRemoval(t *testing.T) {
	svc, _ := newDraftService(t, NopModerator{})
	ctx := context.Background()
	d, _ := svc.Create(ctx, testSession)
	a, _ := svc.AddVariant(ctx, testSession, d.ID)
	b, _ := svc.AddVariant(ctx, testSession, d.ID)

	if res, _ := svc.RemoveVariant(ctx, testSession, d.ID, a.Variant.Key); !res.Applied {
		t.Fatalf("remove not applied")
	}
	res, err := svc.EditVariant(ctx, testSession, d.ID, a.Variant.Key, models.VariantFieldStock, "9")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.Applied {
		t.Fatalf("edit to removed key applied")
	}
	if len(res.Draft.Variants) != 1 || res.Draft.Variants[0].Key != b.Variant.Key || res.Draft.Variants[0].Stock != "0" {
		t.Fatalf("surviving variant touched: %+v", res.Draft.Variants)
	}
}

func TestDraftService_OutOfBoundsIndexIsNoop(t *testing.T) {
	svc, _ := newDraftService(t, NopModerator{})
	ctx := context.Background()
	d, _ := svc.Create(ctx, testSession)
	_, _ = svc.AddVariant(ctx, testSession, d.ID)

	res, err := svc.EditVariantAt(ctx, testSession, d.ID, 5, models.VariantFieldSize, "XL")
	if err != nil || res.Applied {
		t.Fatalf("out of bounds edit: %+v %v", res, err)
	}
	res, err = svc.RemoveVariantAt(ctx, testSession, d.ID, -1)
	if err != nil || res.Applied || len(res.Draft.Variants) != 1 {
		t.Fatalf("out of bounds remove: %+v %v", res, err)
	}
}

func TestDraftService_UnknownDraft(t *testing.T) {
	svc, _ := newDraftService(t, NopModerator{})
	if _, err := svc.AddVariant(context.Background(), testSession, "missing"); !errors.Is(err, utils.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraftService_SetImage(t *testing.T) {
	svc, images := newDraftService(t, NopModerator{})
	ctx := context.Background()
	d, _ := svc.Create(ctx, testSession)

	if _, err := svc.SetImage(ctx, testSession, d.ID, ImageUpload{Filename: "a.png", Body: strings.NewReader(strings.Repeat("x", 17))}); !errors.Is(err, utils.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	first, err := svc.SetImage(ctx, testSession, d.ID, ImageUpload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("first")})
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	firstKey := first.Image.Key
	second, err := svc.SetImage(ctx, testSession, d.ID, ImageUpload{Filename: "b.png", ContentType: "image/png", Body: strings.NewReader("second")})
	if err != nil {
		t.Fatalf("replace image: %v", err)
	}
	if second.Image.Filename != "b.png" || second.Image.Size != 6 {
		t.Fatalf("image ref %+v", second.Image)
	}
	if _, err := images.Open(ctx, firstKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("replaced image not deleted: %v", err)
	}
}

func TestDraftService_SetImageModerated(t *testing.T) {
	svc, _ := newDraftService(t, rejectAll{})
	ctx := context.Background()
	d, _ := svc.Create(ctx, testSession)
	if _, err := svc.SetImage(ctx, testSession, d.ID, ImageUpload{Filename: "a.png", Body: strings.NewReader("img")}); !errors.Is(err, utils.ErrImageRejected) {
		t.Fatalf("expected ErrImageRejected, got %v", err)
	}
	got, _ := svc.Get(ctx, testSession, d.ID)
	if got.Image != nil {
		t.Fatalf("rejected image staged")
	}
}

func TestDraftService_RefreshDoesNotResurrectDiscarded(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	svc := NewDraftService(cache.NewDraftCache(newTestStore(), time.Hour), b, storage.NewLocal(t.TempDir(), "/uploads"), NopModerator{}, 16)
	ctx := context.Background()

	d, err := svc.CreateFromProduct(ctx, testSession, "p1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.product.Name = "Tee v2"
	if err := svc.Refresh(ctx, testSession, d); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got, _ := svc.Get(ctx, testSession, d.ID); got.Name != "Tee v2" || d.Name != "Tee v2" {
		t.Fatalf("refresh not applied: stored %q caller %q", got.Name, d.Name)
	}

	if err := svc.Discard(ctx, testSession, d.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if err := svc.Refresh(ctx, testSession, d); !errors.Is(err, utils.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, testSession, d.ID); !errors.Is(err, utils.ErrDraftNotFound) {
		t.Fatalf("discarded draft came back: %v", err)
	}
}

func backdate(t *testing.T, images *storage.Local, keys ...string) {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	for _, k := range keys {
		if err := os.Chtimes(filepath.Join(images.BaseDir, k), past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
}

func TestDraftService_SweepImages(t *testing.T) {
	svc, images := newDraftService(t, NopModerator{})
	ctx := context.Background()
	upload := func(name string) ImageUpload {
		return ImageUpload{Filename: name, ContentType: "image/png", Body: strings.NewReader("img")}
	}

	live, _ := svc.Create(ctx, testSession)
	live, err := svc.SetImage(ctx, testSession, live.ID, upload("live.png"))
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	expired, _ := svc.Create(ctx, testSession)
	expired, err = svc.SetImage(ctx, testSession, expired.ID, upload("gone.png"))
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	// Draft TTL ran out; the staged image stayed behind.
	if err := svc.drafts.Delete(ctx, testSession.ID, expired.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stray, err := images.Put(ctx, strings.NewReader("stray"), storage.PutInput{Filename: "stray.png"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	young, _ := svc.Create(ctx, testSession)
	young, err = svc.SetImage(ctx, testSession, young.ID, upload("young.png"))
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	_ = svc.drafts.Delete(ctx, testSession.ID, young.ID)

	backdate(t, images, live.Image.Key, expired.Image.Key, stray.Key)

	removed, err := svc.SweepImages(ctx, time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed %d", removed)
	}
	for _, k := range []string{expired.Image.Key, stray.Key} {
		if _, err := images.Open(ctx, k); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("orphan %s kept: %v", k, err)
		}
	}
	for _, k := range []string{live.Image.Key, young.Image.Key} {
		rc, err := images.Open(ctx, k)
		if err != nil {
			t.Fatalf("image %s swept: %v", k, err)
		}
		rc.Close()
	}
	if _, err := svc.drafts.ImageOwner(ctx, expired.Image.Key); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("owner record kept: %v", err)
	}
}
