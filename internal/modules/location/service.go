// README: Location resolution: Google geocoding behind a shared Redis cache.
package location

import (
	"context"
	"strings"

	"googlemaps.github.io/maps"

	"pickup/internal/logger"
	"pickup/internal/types"
)

// Resolver turns an anchor name (a school or an airport) into coordinates.
// ok is false when the name cannot be resolved; that is not an error.
// Implementations must be idempotent under retry.
type Resolver interface {
	Resolve(ctx context.Context, name string) (types.Point, bool, error)
}

// Cache stores resolved coordinates keyed by normalized name. A second
// miss-then-store for an already-cached key is benign.
type Cache interface {
	Get(ctx context.Context, key string) (types.Point, bool, error)
	Put(ctx context.Context, key string, p types.Point) error
}

// GoogleResolver resolves names through the Google Geocoding API.
type GoogleResolver struct {
	client *maps.Client
}

func NewGoogleResolver(client *maps.Client) *GoogleResolver {
	return &GoogleResolver{client: client}
}

func (g *GoogleResolver) Resolve(ctx context.Context, name string) (types.Point, bool, error) {
	if name == "" {
		return types.Point{}, false, nil
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: name})
	if err != nil {
		return types.Point{}, false, err
	}
	if len(results) == 0 {
		return types.Point{}, false, nil
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, true, nil
}

// CachedResolver checks the cache before delegating to the inner resolver.
type CachedResolver struct {
	inner Resolver
	cache Cache
	log   logger.Logger
}

func NewCachedResolver(inner Resolver, cache Cache, log logger.Logger) *CachedResolver {
	return &CachedResolver{inner: inner, cache: cache, log: log}
}

func (c *CachedResolver) Resolve(ctx context.Context, name string) (types.Point, bool, error) {
	key := cacheKey(name)
	if key == "" {
		return types.Point{}, false, nil
	}

	if p, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return p, true, nil
	} else if err != nil {
		// Cache trouble degrades to a resolver call, never to a failure.
		c.log.Warn("location cache read failed", "key", key, "error", err)
	}

	p, ok, err := c.inner.Resolve(ctx, name)
	if err != nil || !ok {
		return types.Point{}, false, err
	}
	if err := c.cache.Put(ctx, key, p); err != nil {
		c.log.Warn("location cache write failed", "key", key, "error", err)
	}
	return p, true, nil
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
