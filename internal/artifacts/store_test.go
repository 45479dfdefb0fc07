package artifacts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

func TestObjectKey(t *testing.T) {
	if got := ObjectKey(42, 7); got != "generated/42/7.png" {
		t.Fatalf("ObjectKey = %q", got)
	}
}

func TestLocal_PrepareIsIdempotent_AndPutWritesFile(t *testing.T) {
	root := t.TempDir()
	st := NewLocal(root)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := st.Prepare(ctx, 5); err != nil {
			t.Fatalf("Prepare #%d: %v", i, err)
		}
	}
	ref, err := st.Put(ctx, 5, 3, []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref != "/generated/5/3.png" {
		t.Fatalf("ref = %q", ref)
	}
	b, err := os.ReadFile(filepath.Join(root, "5", "3.png"))
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("file content = %q, %v", b, err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "5"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestLocal_PutWithoutPrepareFails(t *testing.T) {
	st := NewLocal(t.TempDir())
	if _, err := st.Put(context.Background(), 9, 1, []byte("x"), "image/png"); err == nil {
		t.Fatalf("expected error when namespace is missing")
	}
}

func TestNew_SelectsLocal(t *testing.T) {
	st, err := New(context.Background(), config.ArtifactConfig{Backend: config.ArtifactLocal, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := st.(*Local); !ok {
		t.Fatalf("expected *Local, got %T", st)
	}
	if _, err := New(context.Background(), config.ArtifactConfig{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3_Put(t *testing.T) {
	fp := &fakePutter{}
	st := &S3{client: fp, bucket: "cals", publicURL: "https://cdn.example.com"}

	ref, err := st.Put(context.Background(), 3, 12, []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref != "https://cdn.example.com/generated/3/12.png" {
		t.Fatalf("ref = %q", ref)
	}
	if *fp.in.Bucket != "cals" || *fp.in.Key != "generated/3/12.png" || *fp.in.ContentType != "image/png" || string(fp.body) != "img" {
		t.Fatalf("unexpected input: %+v body=%q", fp.in, fp.body)
	}

	fp.err = errors.New("denied")
	if _, err := st.Put(context.Background(), 3, 1, []byte("img"), "image/png"); err == nil {
		t.Fatalf("expected upload error")
	}
}
