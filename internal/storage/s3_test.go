package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	objects map[string][]byte
	lastPut *s3.PutObjectInput
	lists   int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = params
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.lists++
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestS3Backend(t *testing.T) {
	fake := newFakeS3()
	backendContract(t, NewS3WithClient("bucket", "/studio/", fake))
	if fake.lists == 0 {
		t.Fatalf("expected ListObjectsV2 to be used")
	}
}

func TestS3PrefixesObjectKeys(t *testing.T) {
	fake := newFakeS3()
	s := NewS3WithClient("bucket", "studio", fake)
	if s.Prefix() != "studio" || s.Bucket() != "bucket" {
		t.Fatalf("unexpected bucket/prefix %s/%s", s.Bucket(), s.Prefix())
	}
	if err := s.Put(context.Background(), "projects/a.json", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := fake.objects["studio/projects/a.json"]; !ok {
		t.Fatalf("object not stored under prefix: %v", fake.objects)
	}
	if got := aws.ToString(fake.lastPut.ContentType); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}
}

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string                 { return e.code }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&types.NoSuchKey{}) {
		t.Fatalf("NoSuchKey should be not found")
	}
	if !IsNotFound(fakeAPIError{code: "NotFound"}) {
		t.Fatalf("NotFound api error should be not found")
	}
	if IsNotFound(fakeAPIError{code: "AccessDenied"}) {
		t.Fatalf("AccessDenied is not a missing key")
	}
	if !IsNotFound(ErrNotFound) || IsNotFound(errors.New("boom")) {
		t.Fatalf("unexpected IsNotFound result for plain errors")
	}
}
