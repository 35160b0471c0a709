package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const cacheTTL = 30 * time.Minute

// ImageCache keeps listing image bytes and URL sets in Redis so repeated
// reads skip the file storage round trip.
type ImageCache struct {
	cli    *redis.Client
	logger *logrus.Logger
	tracer trace.Tracer
}

func New(host, port string, logger *logrus.Logger, tracer trace.Tracer) *ImageCache {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})

	return &ImageCache{
		cli:    client,
		logger: logger,
		tracer: tracer,
	}
}

func (cache *ImageCache) Ping() {
	val, _ := cache.cli.Ping().Result()
	cache.logger.Infoln(val)
}

func (cache *ImageCache) Post(ctx context.Context, listingID, imageName string, image []byte) error {
	_, span := cache.tracer.Start(ctx, "ImageCache.Post")
	defer span.End()

	err := cache.cli.Set(constructKey(listingID, imageName), image, cacheTTL).Err()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (cache *ImageCache) Get(ctx context.Context, listingID, imageName string) ([]byte, error) {
	_, span := cache.tracer.Start(ctx, "ImageCache.Get")
	defer span.End()

	value, err := cache.cli.Get(constructKey(listingID, imageName)).Bytes()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return value, nil
}

func (cache *ImageCache) PostURLs(ctx context.Context, listingID string, urls []string) error {
	_, span := cache.tracer.Start(ctx, "ImageCache.PostURLs")
	defer span.End()

	jsonValue, err := json.Marshal(urls)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = cache.cli.Set(constructURLsKey(listingID), jsonValue, cacheTTL).Err()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (cache *ImageCache) GetURLs(ctx context.Context, listingID string) ([]string, error) {
	_, span := cache.tracer.Start(ctx, "ImageCache.GetURLs")
	defer span.End()

	jsonValue, err := cache.cli.Get(constructURLsKey(listingID)).Result()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var urls []string
	err = json.Unmarshal([]byte(jsonValue), &urls)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return urls, nil
}

func (cache *ImageCache) Invalidate(ctx context.Context, listingID string) {
	_, span := cache.tracer.Start(ctx, "ImageCache.Invalidate")
	defer span.End()

	if err := cache.cli.Del(constructURLsKey(listingID)).Err(); err != nil {
		cache.logger.Errorf("ImageCache.Invalidate : %s", err)
	}
}

func constructKey(listingID, imageName string) string {
	return fmt.Sprintf("listings:%s:images:%s", listingID, imageName)
}

func constructURLsKey(listingID string) string {
	return fmt.Sprintf("listings:%s:imageUrls", listingID)
}
