package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rakesh-nandakumar/contextd/internal/domain"
	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
	"github.com/rakesh-nandakumar/contextd/internal/port/cache"
	"github.com/rakesh-nandakumar/contextd/internal/port/database"
	"github.com/rakesh-nandakumar/contextd/internal/port/messagequeue"
)

// configCacheKey is the single cache entry holding both the manifest and
// the enabled-section map, so a load never observes one fresh and one stale.
const configCacheKey = "retrieval_config"

// cachedConfig is the serialized form of the config cache entry.
type cachedConfig struct {
	Manifest manifest.Manifest        `json:"manifest"`
	Enabled  manifest.EnabledSections `json:"enabled_sections"`
}

// ManifestConfigService is the manifest store and cache. It serves the
// persisted manifest and enabled-section map through a short-TTL in-process
// cache, degrades to the built-in defaults when durable storage is
// unreachable, and persists admin edits with immediate invalidation.
type ManifestConfigService struct {
	store database.Store
	cache cache.Cache
	bus   messagequeue.Bus // optional; nil disables cross-instance fan-out
	ttl   time.Duration
}

// NewManifestConfigService creates a ManifestConfigService. bus may be nil.
func NewManifestConfigService(store database.Store, c cache.Cache, bus messagequeue.Bus, ttl time.Duration) *ManifestConfigService {
	return &ManifestConfigService{store: store, cache: c, bus: bus, ttl: ttl}
}

// Load returns the current manifest and enabled-section map. Failures
// never propagate: a cache miss falls through to storage, and a storage
// failure degrades to the built-in defaults so the chat feature keeps
// producing some context.
func (s *ManifestConfigService) Load(ctx context.Context) (manifest.Manifest, manifest.EnabledSections) {
	if data, ok, err := s.cache.Get(ctx, configCacheKey); err == nil && ok {
		var cached cachedConfig
		uerr := json.Unmarshal(data, &cached)
		if uerr == nil {
			return cached.Manifest, cached.Enabled
		}
		slog.Warn("corrupt config cache entry, refetching", "error", uerr)
	}

	m, enabled := s.loadPersisted(ctx)

	if data, err := json.Marshal(cachedConfig{Manifest: m, Enabled: enabled}); err == nil {
		if err := s.cache.Set(ctx, configCacheKey, data, s.ttl); err != nil {
			slog.Warn("config cache set failed", "error", err)
		}
	}

	return m, enabled
}

// loadPersisted reads both config keys from durable storage, substituting
// defaults per key on absence or failure.
func (s *ManifestConfigService) loadPersisted(ctx context.Context) (manifest.Manifest, manifest.EnabledSections) {
	// Decode into zero values, not pre-seeded defaults: unmarshaling merges
	// into non-nil maps, which would resurrect default sections the admin
	// deleted. The default applies only when the key is absent or malformed.
	var m manifest.Manifest
	if raw, err := s.store.GetConfigValue(ctx, database.ConfigKeyManifest); err != nil {
		logConfigMiss(database.ConfigKeyManifest, err)
		m = manifest.Default()
	} else if err := json.Unmarshal(raw, &m); err != nil {
		slog.Error("persisted manifest is malformed, using default", "error", err)
		m = manifest.Default()
	}

	var enabled manifest.EnabledSections
	if raw, err := s.store.GetConfigValue(ctx, database.ConfigKeyEnabled); err != nil {
		logConfigMiss(database.ConfigKeyEnabled, err)
		enabled = manifest.DefaultEnabled()
	} else if err := json.Unmarshal(raw, &enabled); err != nil {
		slog.Error("persisted enabled sections are malformed, using default", "error", err)
		enabled = manifest.DefaultEnabled()
	}

	return m, enabled
}

func logConfigMiss(key string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		// Fresh database; defaults apply until the first save.
		slog.Debug("config key not persisted yet, using default", "key", key)
		return
	}
	slog.Error("config load failed, using default", "key", key, "error", err)
}

// Save validates and persists the manifest and enabled-section map, then
// invalidates the cache so the next Load is guaranteed fresh. Unlike Load,
// storage failures are surfaced to the caller.
func (s *ManifestConfigService) Save(ctx context.Context, m manifest.Manifest, enabled manifest.EnabledSections) error {
	if err := m.Validate(); err != nil {
		return err
	}

	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	enabledJSON, err := json.Marshal(enabled)
	if err != nil {
		return fmt.Errorf("encode enabled sections: %w", err)
	}

	if err := s.store.SaveManifestConfig(ctx, manifestJSON, enabledJSON); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}

	s.Invalidate(ctx)
	slog.Info("retrieval config saved", "sections", len(m.Sections), "version", m.Version)
	return nil
}

// Invalidate drops the local cached config and fans the invalidation out to
// other instances on the bus. Used after Save and by the admin cache-clear
// trigger (e.g. after out-of-band edits).
func (s *ManifestConfigService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, configCacheKey); err != nil {
		slog.Warn("config cache invalidation failed", "error", err)
	}
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, messagequeue.SubjectConfigInvalidate, nil); err != nil {
		// Remote instances will still converge within their cache TTL.
		slog.Warn("config invalidation publish failed", "error", err)
	}
}

// StartInvalidationSubscriber drops the local cache whenever another
// instance announces a config change. Returns a cancel func, or a no-op
// when no bus is configured.
func (s *ManifestConfigService) StartInvalidationSubscriber(ctx context.Context) (func(), error) {
	if s.bus == nil {
		return func() {}, nil
	}
	cancel, err := s.bus.Subscribe(ctx, messagequeue.SubjectConfigInvalidate, func(msgCtx context.Context, _ string, _ []byte) error {
		if err := s.cache.Delete(msgCtx, configCacheKey); err != nil {
			return fmt.Errorf("drop config cache: %w", err)
		}
		slog.Debug("config cache dropped on bus invalidation")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe config invalidation: %w", err)
	}
	return cancel, nil
}
