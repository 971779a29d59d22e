package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects map[string]string
	gets    int
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func newTestSpaces(t *testing.T) (*SpacesService, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string]string{
		"packs/world.ddb-oathbreaker-ddb-items.json": `[
			{"_id":"a","name":"Sun Blade","type":"weapon","system":{"rarity":"rare"}},
			{"_id":"b","name":"Rope","type":"loot"}
		]`,
		"packs/archive/old.json": `[]`,
		"packs/readme.txt":       "hi",
	}}
	s, err := newSpacesService(bucket, SpacesOptions{Bucket: "sanctum", PackRoot: "/packs/", CacheSize: 2})
	require.NoError(t, err)
	return s, bucket
}

func TestSpacesListPacks(t *testing.T) {
	s, _ := newTestSpaces(t)
	names, err := s.ListPacks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"world.ddb-oathbreaker-ddb-items"}, names)
}

func TestSpacesSourceCachesPack(t *testing.T) {
	s, bucket := newTestSpaces(t)
	src := s.Source("world.ddb-oathbreaker-ddb-items")
	ctx := context.Background()

	items, err := src.ListItems(ctx, catalog.IndexFields)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "rare", items[0].System["rarity"])

	full, err := src.GetFullItem(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Rope", full.Name)
	assert.Equal(t, 1, bucket.gets)

	_, err = src.GetFullItem(ctx, "zzz")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestSpacesMissingPack(t *testing.T) {
	s, _ := newTestSpaces(t)
	_, err := s.Source("nope").ListItems(context.Background(), nil)
	assert.True(t, catalog.IsSourceNotFound(err))
}

func TestSpacesUploadInvalidatesCache(t *testing.T) {
	s, bucket := newTestSpaces(t)
	ctx := context.Background()

	_, err := s.LoadPack(ctx, "world.ddb-oathbreaker-ddb-items")
	require.NoError(t, err)

	require.NoError(t, s.UploadPack(ctx, "world.ddb-oathbreaker-ddb-items", []byte(`[{"_id":"c","name":"Lantern","type":"loot"}]`)))
	items, err := s.LoadPack(ctx, "world.ddb-oathbreaker-ddb-items")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lantern", items[0].Name)
	assert.Equal(t, 2, bucket.gets)
}
