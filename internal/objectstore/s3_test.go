package objectstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	putInputs []*s3.PutObjectInput
	aclInputs []*s3.PutObjectAclInput
	putErr    error
	aclErr    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInputs = append(f.putInputs, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PutObjectAcl(_ context.Context, params *s3.PutObjectAclInput, _ ...func(*s3.Options)) (*s3.PutObjectAclOutput, error) {
	f.aclInputs = append(f.aclInputs, params)
	if f.aclErr != nil {
		return nil, f.aclErr
	}
	return &s3.PutObjectAclOutput{}, nil
}

func TestUploadStoresObjectUnderPrefix(t *testing.T) {
	client := &fakeS3{}
	u := NewUploader(client, "note-images", "us-east-1", "uploads/", slog.Default())

	res, err := u.Upload(context.Background(), []byte("jpeg-bytes"), "image_20260830_120000.jpg")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if res.Key != "uploads/image_20260830_120000.jpg" {
		t.Fatalf("unexpected key %q", res.Key)
	}
	if res.Link != "https://note-images.s3.us-east-1.amazonaws.com/uploads/image_20260830_120000.jpg" {
		t.Fatalf("unexpected link %q", res.Link)
	}

	if len(client.putInputs) != 1 {
		t.Fatalf("expected one PutObject call, got %d", len(client.putInputs))
	}
	input := client.putInputs[0]
	if *input.Bucket != "note-images" || *input.ContentType != "image/jpeg" {
		t.Fatalf("unexpected put input: bucket=%q contentType=%q", *input.Bucket, *input.ContentType)
	}
	body, _ := io.ReadAll(input.Body)
	if string(body) != "jpeg-bytes" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestUploadRejectsEmptyPayload(t *testing.T) {
	u := NewUploader(&fakeS3{}, "note-images", "", "", slog.Default())

	if _, err := u.Upload(context.Background(), nil, "image.jpg"); err == nil {
		t.Fatal("expected an error for empty payload")
	}
}

func TestUploadWrapsClientError(t *testing.T) {
	client := &fakeS3{putErr: errors.New("access denied")}
	u := NewUploader(client, "note-images", "", "", slog.Default())

	if _, err := u.Upload(context.Background(), []byte("data"), "image.jpg"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSetPublicReadableBestEffort(t *testing.T) {
	client := &fakeS3{}
	u := NewUploader(client, "note-images", "", "", slog.Default())

	if !u.SetPublicReadable(context.Background(), "image.jpg") {
		t.Fatal("expected success")
	}

	client.aclErr = errors.New("acls disabled on bucket")
	if u.SetPublicReadable(context.Background(), "image.jpg") {
		t.Fatal("expected failure to be reported as false")
	}
}

func TestObjectURLWithoutRegion(t *testing.T) {
	u := NewUploader(&fakeS3{}, "note-images", "", "", slog.Default())
	if got := u.objectURL("k.jpg"); got != "https://note-images.s3.amazonaws.com/k.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestImageFilename(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)
	if got := ImageFilename(ts); got != "image_20260830_123456.jpg" {
		t.Fatalf("unexpected filename %q", got)
	}
}
