package dao

import (
	"context"
	"strconv"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	pages [][]string
	calls int
	err   error
}

func (f *fakeLister) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := 0
	if in.ContinuationToken != nil {
		page, _ = strconv.Atoi(*in.ContinuationToken)
	}
	f.calls++

	now := time.Now()
	out := s3.ListObjectsV2Output{IsTruncated: awssdk.Bool(page+1 < len(f.pages))}
	for _, k := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{
			Key:          awssdk.String(k),
			Size:         awssdk.Int64(int64(len(k))),
			LastModified: &now,
			StorageClass: types.ObjectStorageClassStandard,
		})
	}
	if page+1 < len(f.pages) {
		out.NextContinuationToken = awssdk.String(strconv.Itoa(page + 1))
	}

	return &out, nil
}

func TestS3ObjectsListing(t *testing.T) {
	l := fakeLister{pages: [][]string{{"a/1", "a/2"}, {"a/3"}}}
	cache := NewResourceCache(time.Minute)
	o := NewS3Objects(&l, "bkt", "a/", cache)
	ctx := context.Background()

	n, err := o.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, l.calls)

	rr, err := o.FetchRange(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, rr, 2)
	assert.Equal(t, "a/2", rr[0].ID)
	assert.Equal(t, int64(2), rr[1].Seq)
	assert.Equal(t, 2, l.calls)

	again := NewS3Objects(&l, "bkt", "a/", cache)
	n, err = again.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, l.calls)

	o.Reload()
	assert.Equal(t, model1.ChangeReset, (<-o.Events()).Kind)
	_, err = o.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, l.calls)
}

func TestS3ObjectsFailure(t *testing.T) {
	l := fakeLister{err: &smithy.GenericAPIError{Code: "ExpiredToken"}}
	o := NewS3Objects(&l, "bkt", "", nil)

	_, err := o.Count(context.Background())
	assert.ErrorIs(t, err, aws.ErrExpiredCredentials)
}

func TestS3ObjectsReorder(t *testing.T) {
	l := fakeLister{pages: [][]string{{"b", "a"}}}
	o := NewS3Objects(&l, "bkt", "", nil)
	_, err := o.Count(context.Background())
	require.NoError(t, err)

	require.NoError(t, o.Reorder([]int{1, 0}))
	assert.Equal(t, "a", o.At(0).ID)
}

func TestOpenS3NoConnection(t *testing.T) {
	_, err := ProviderFor(context.Background(), NewFactory(nil), "s3://bkt/prefix")
	assert.ErrorIs(t, err, aws.ErrNoConnection)
}
