package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

const packExt = ".json"

// objectStore is the subset of the S3 client the pack source needs.
type objectStore interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type SpacesOptions struct {
	Key       string
	Secret    string
	Region    string
	Bucket    string
	Endpoint  string
	PackRoot  string
	CacheSize int
}

// SpacesService serves compendium packs stored as JSON exports under <pack root>/<name>.json.
type SpacesService struct {
	client   objectStore
	bucket   string
	region   string
	PackRoot string

	mu    sync.Mutex
	cache *lru.Cache
}

func NewSpacesService(ctx context.Context, opts SpacesOptions) (*SpacesService, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", opts.Region)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, "")),
		config.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return newSpacesService(client, opts)
}

func newSpacesService(client objectStore, opts SpacesOptions) (*SpacesService, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 16
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create pack cache: %w", err)
	}
	return &SpacesService{
		client:   client,
		bucket:   opts.Bucket,
		region:   opts.Region,
		PackRoot: strings.Trim(opts.PackRoot, "/"),
		cache:    cache,
	}, nil
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}

func (s *SpacesService) packKey(name string) string {
	return path.Join(s.PackRoot, name+packExt)
}

// ListPacks returns the names of every pack under the pack root, sorted.
func (s *SpacesService) ListPacks(ctx context.Context) ([]string, error) {
	prefix := s.PackRoot + "/"
	if s.PackRoot == "" {
		prefix = ""
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list packs: %w", err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(key, "/") || !strings.HasSuffix(key, packExt) {
				continue
			}
			names = append(names, strings.TrimSuffix(key, packExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadPack fetches and parses a pack, serving repeat reads from the cache.
func (s *SpacesService) LoadPack(ctx context.Context, name string) ([]catalog.Item, error) {
	s.mu.Lock()
	if v, ok := s.cache.Get(name); ok {
		s.mu.Unlock()
		return v.([]catalog.Item), nil
	}
	s.mu.Unlock()

	start := time.Now()
	key := s.packKey(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &catalog.SourceNotFoundError{Source: name}
		}
		return nil, fmt.Errorf("failed to fetch pack %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack %s: %w", key, err)
	}
	items, err := catalog.ParseItems(data)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache.Add(name, items)
	s.mu.Unlock()

	slog.Info("Compendium pack loaded",
		slog.String("type", "sys"),
		slog.String("component", "spaces"),
		slog.String("pack", name),
		slog.Int("items", len(items)),
		slog.Duration("took", time.Since(start)),
	)
	return items, nil
}

// UploadPack stores a JSON export as a pack and drops any cached copy.
func (s *SpacesService) UploadPack(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.packKey(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload pack %s: %w", name, err)
	}
	s.InvalidatePack(name)
	return nil
}

func (s *SpacesService) InvalidatePack(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(name)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

func (s *SpacesService) Source(pack string) catalog.Source {
	return &spacesSource{spaces: s, pack: pack}
}

type spacesSource struct {
	spaces *SpacesService
	pack   string
}

func (p *spacesSource) Name() string {
	return p.pack
}

func (p *spacesSource) ListItems(ctx context.Context, _ []string) ([]catalog.Item, error) {
	items, err := p.spaces.LoadPack(ctx, p.pack)
	if err != nil {
		return nil, err
	}
	return append([]catalog.Item(nil), items...), nil
}

func (p *spacesSource) GetFullItem(ctx context.Context, id string) (catalog.Payload, error) {
	items, err := p.spaces.LoadPack(ctx, p.pack)
	if err != nil {
		return catalog.Payload{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return catalog.PayloadOf(item), nil
		}
	}
	return catalog.Payload{}, fmt.Errorf("%w: %s in %s", catalog.ErrItemNotFound, id, p.pack)
}
