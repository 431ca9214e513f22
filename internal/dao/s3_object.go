package dao

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
)

// listings is shared so reopening a bucket within the TTL skips the crawl.
var listings = NewResourceCache(DefaultCacheTTL)

func init() {
	RegisterSource("s3", openS3)
}

// openS3 serves s3://bucket/prefix.
func openS3(ctx context.Context, f Factory, u *url.URL) (Provider, error) {
	bucket, prefix := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return nil, fmt.Errorf("s3 source %q: missing bucket", u.String())
	}
	if f == nil || f.Client() == nil {
		return nil, aws.ErrNoConnection
	}
	conn := f.Client()
	region, err := conn.BucketRegion(ctx, bucket)
	if err != nil {
		return nil, err
	}
	client, err := conn.S3Regional(region)
	if err != nil {
		return nil, err
	}

	return NewS3Objects(client, bucket, prefix, listings), nil
}

// S3Objects lists every key under a prefix. The listing is crawled once with
// the ListObjectsV2 paginator and sorted locally.
type S3Objects struct {
	Base
	rowStore

	client   s3.ListObjectsV2APIClient
	bucket   string
	prefix   string
	cache    *ResourceCache
	renderer render.S3Object
	loaded   bool
	loadMx   sync.Mutex
}

// NewS3Objects returns a provider listing bucket/prefix.
func NewS3Objects(client s3.ListObjectsV2APIClient, bucket, prefix string, cache *ResourceCache) *S3Objects {
	o := S3Objects{
		client: client,
		bucket: bucket,
		prefix: prefix,
		cache:  cache,
	}
	o.init(o.renderer.Header())

	return &o
}

func (o *S3Objects) cacheKey() string {
	return o.bucket + "/" + o.prefix
}

func (o *S3Objects) load(ctx context.Context) error {
	o.loadMx.Lock()
	defer o.loadMx.Unlock()

	if o.loaded {
		return nil
	}
	if o.cache != nil {
		if rows, ok := o.cache.Get(o.cacheKey()); ok {
			o.set(rows.Clone())
			o.loaded = true
			return nil
		}
	}

	input := s3.ListObjectsV2Input{Bucket: &o.bucket}
	if o.prefix != "" {
		input.Prefix = &o.prefix
	}
	paginator := s3.NewListObjectsV2Paginator(o.client, &input)

	var rows model1.Rows
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return aws.WrapAWSError(err, "list objects")
		}
		for _, obj := range output.Contents {
			var row model1.Row
			if err := o.renderer.Render(obj, &row); err != nil {
				continue
			}
			row.Seq = int64(len(rows))
			rows = append(rows, row)
		}
	}
	if o.cache != nil {
		o.cache.Set(o.cacheKey(), rows.Clone())
	}
	o.set(rows)
	o.loaded = true

	return nil
}

// Count returns the number of listed keys, crawling on first use.
func (o *S3Objects) Count(ctx context.Context) (int, error) {
	if err := o.load(ctx); err != nil {
		return 0, err
	}
	return o.Len(), nil
}

// FetchRange returns a window of the listing.
func (o *S3Objects) FetchRange(ctx context.Context, start, length int) (model1.Rows, error) {
	if err := o.load(ctx); err != nil {
		return nil, err
	}
	return o.slice(start, length)
}

// Reload drops the cached listing and announces a reset.
func (o *S3Objects) Reload() {
	if o.cache != nil {
		o.cache.Invalidate(o.cacheKey())
	}
	o.loadMx.Lock()
	o.loaded = false
	o.loadMx.Unlock()

	o.emit(model1.ChangeEvent{Kind: model1.ChangeReset})
}

// ColorerFunc returns the object colorer.
func (o *S3Objects) ColorerFunc() render.ColorerFunc {
	return o.renderer.ColorerFunc()
}
