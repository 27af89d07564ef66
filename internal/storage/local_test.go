package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocal_PutOpenDelete(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads/")
	ctx := context.Background()

	res, err := l.Put(ctx, strings.NewReader("png-bytes"), PutInput{Filename: "Cream.PNG", ContentType: "image/png"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasSuffix(res.Key, ".png") || res.URL != "/uploads/"+res.Key {
		t.Fatalf("unexpected result %+v", res)
	}

	rc, err := l.Open(ctx, res.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, []byte("png-bytes")) {
		t.Fatalf("content %q", got)
	}

	if err := l.Delete(ctx, res.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := l.Open(ctx, res.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := l.Delete(ctx, res.Key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestLocal_DropsUnknownExtension(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	res, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "run.sh"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if strings.Contains(res.Key, ".") {
		t.Fatalf("extension kept: %s", res.Key)
	}
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("client went away")
}

func TestLocal_FailedCopyLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads")
	if _, err := l.Put(context.Background(), &failingReader{}, PutInput{Filename: "a.png"}); err == nil {
		t.Fatal("expected copy error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("partial upload left behind: %v", entries[0].Name())
	}
}

func TestLocal_ListBefore(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads")
	ctx := context.Background()

	old, err := l.Put(ctx, strings.NewReader("old"), PutInput{Filename: "old.png"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	fresh, err := l.Put(ctx, strings.NewReader("fresh"), PutInput{Filename: "fresh.png"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, old.Key), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	keys, err := l.ListBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0] != old.Key {
		t.Fatalf("keys %v, fresh %s", keys, fresh.Key)
	}

	missing := NewLocal(filepath.Join(dir, "nope"), "/uploads")
	if keys, err := missing.ListBefore(ctx, time.Now()); err != nil || len(keys) != 0 {
		t.Fatalf("missing dir: %v %v", keys, err)
	}
}
