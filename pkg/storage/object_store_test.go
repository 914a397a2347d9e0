package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestClassForContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        MediaClass
	}{
		{"image/png", MediaImage},
		{"image/jpeg", MediaImage},
		{"video/mp4", MediaVideo},
		{"application/pdf", MediaDocument},
		{"text/plain", MediaDocument},
	}
	for _, tc := range cases {
		if got := ClassForContentType(tc.contentType); got != tc.want {
			t.Errorf("ClassForContentType(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}

func TestNewObjectKeyShape(t *testing.T) {
	key := NewObjectKey("42", "application/pdf")
	if !strings.HasPrefix(key, "document/user_42/") {
		t.Fatalf("unexpected key shape: %s", key)
	}
	if classOf(key) != MediaDocument {
		t.Fatalf("class lost in key: %s", key)
	}
}

func TestMemoryObjectStoreRoundTrip(t *testing.T) {
	s := NewMemoryObjectStore()
	ctx := context.Background()

	key, err := s.Upload(ctx, "7", strings.NewReader("hello"), 5, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	url, err := s.PresignGet(ctx, key, 0)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, key) {
		t.Fatalf("presigned url should reference the key: %s", url)
	}

	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.PresignGet(ctx, key, 0); err == nil {
		t.Fatalf("expected error after delete")
	}
}
