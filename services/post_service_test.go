package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"socialhub/utils"
)

func TestPostService_UploadThenCreate(t *testing.T) {
	media := newMemMediaStore()
	svc := NewPostService(newMemPostStore(), media, time.Hour)
	alice := principal("alice")
	ctx := context.Background()

	upload, err := svc.UploadMedia(ctx, alice, strings.NewReader("jpegbytes"), "Beach.JPG")
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if !strings.HasPrefix(upload.MediaKey, "posts/"+alice.UserID.Hex()+"/") || !strings.HasSuffix(upload.MediaKey, ".jpg") {
		t.Errorf("media key = %q", upload.MediaKey)
	}
	if upload.Size != int64(len("jpegbytes")) || upload.PreviewURL == "" {
		t.Errorf("upload = %+v", upload)
	}

	post, err := svc.Create(ctx, alice, " at the beach ", upload.MediaKey)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.Caption != "at the beach" || post.OwnerID != alice.UserID {
		t.Errorf("post = %+v", post)
	}

	got, err := svc.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(got.MediaURL, upload.MediaKey) {
		t.Errorf("media URL = %q", got.MediaURL)
	}
}

func TestPostService_CreateRejectsForeignMedia(t *testing.T) {
	svc := NewPostService(newMemPostStore(), newMemMediaStore(), time.Hour)
	alice, bob := principal("alice"), principal("bob")

	_, err := svc.Create(context.Background(), alice, "stolen", "posts/"+bob.UserID.Hex()+"/x.jpg")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestPostService_UploadRejectsUnsupportedType(t *testing.T) {
	svc := NewPostService(newMemPostStore(), newMemMediaStore(), time.Hour)

	_, err := svc.UploadMedia(context.Background(), principal("alice"), strings.NewReader("x"), "script.exe")
	if !utils.IsValidationError(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestPostService_SigningFailureKeepsPost(t *testing.T) {
	media := newMemMediaStore()
	svc := NewPostService(newMemPostStore(), media, time.Hour)
	alice := principal("alice")
	ctx := context.Background()

	post, err := svc.Create(ctx, alice, "caption", "posts/"+alice.UserID.Hex()+"/a.png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	media.signErr = errors.New("b2 down")
	got, err := svc.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MediaURL != "" {
		t.Errorf("MediaURL = %q, want empty", got.MediaURL)
	}
}
