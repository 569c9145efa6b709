package s3store

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

// fakeS3 mimics the bucket semantics the store relies on.
type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(append([]byte(nil), body...))),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreInterface(t *testing.T) {
	blobstore.Test(t, func(t *testing.T) blobstore.Store {
		return NewWithClient(newFakeS3(), "revenue")
	})
}

func TestPutSetsContentType(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, "revenue")

	err := store.Put(context.Background(), "usage.csv", []byte("a"), "text/csv")
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, fake.contentTypes["revenue/usage.csv"], "text/csv")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	tt.AssertErrContains(t, err, "bucket")
}
