// Package searchctl implements the client-side search controller: the
// component that owns the lifecycle of user-triggered weather lookups.
// It serializes and arbitrates lookups so the view only ever reflects the
// outcome of the most recent request — never a stale one — while avoiding
// redundant network calls through an in-memory, dual-keyed cache and a
// duplicate-suppression window.
//
// One Controller instance serves one UI session. All lookup state (epoch,
// cache, debounce bookkeeping) lives on the instance; there are no globals.
package searchctl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Lookup outcome errors surfaced through the OnError callback. Cancellation
// is deliberately absent: a superseded request is expected, not a failure,
// and never reaches the callback.
var (
	ErrOffline      = errors.New("no network connectivity")
	ErrTimeout      = errors.New("lookup timed out")
	ErrNotFound     = errors.New("place not found")
	ErrUpstream     = errors.New("weather service failure")
	ErrInvalidInput = errors.New("invalid place query")
)

// Defaults for the tunable lifecycle parameters. Both are configuration,
// not behavior contracts.
const (
	DefaultDebounceWindow = 600 * time.Millisecond
	DefaultHistoryLimit   = 5
	DefaultLookupTimeout  = 15 * time.Second
)

// PlaceQuery is the immutable input to a lookup: either free text or a
// coordinate pair.
type PlaceQuery struct {
	City   string
	Lat    float64
	Lon    float64
	Coords bool
}

// ByName builds a free-text query.
func ByName(city string) PlaceQuery {
	return PlaceQuery{City: city}
}

// ByCoords builds a coordinate query.
func ByCoords(lat, lon float64) PlaceQuery {
	return PlaceQuery{Lat: lat, Lon: lon, Coords: true}
}

// key normalizes the query into a cache key: lower-cased trimmed text for
// name queries, a fixed-precision coordinate string for coordinate queries.
// Returns "" when the query cannot be admitted.
func (q PlaceQuery) key() string {
	if q.Coords {
		if !isFinite(q.Lat) || !isFinite(q.Lon) {
			return ""
		}
		return coordKey(q.Lat, q.Lon)
	}
	return strings.ToLower(strings.TrimSpace(q.City))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// View renders lookup results. It holds no logic the controller depends on;
// the controller only pushes into it.
type View interface {
	Render(place string, data Snapshot)
}

// entry is one immutable cache record. Repeated lookups of the same key are
// served from the entry; it is never overwritten.
type entry struct {
	place    string
	snapshot Snapshot
}

// Config carries the collaborators and tuning knobs for a Controller.
// Client and View are required; everything else is optional.
type Config struct {
	Client  QueryClient
	View    View
	OnError func(error)      // status channel for non-cancellation failures
	Online  func() bool      // connectivity probe checked before fetching
	Prefs   KV               // backing store for history and preferences
	Now     func() time.Time // clock override for tests

	DebounceWindow time.Duration
	HistoryLimit   int
	LookupTimeout  time.Duration
}

// Controller owns the request lifecycle for user-initiated lookups.
type Controller struct {
	mu sync.Mutex

	client  QueryClient
	view    View
	onError func(error)
	online  func() bool
	prefs   KV
	now     func() time.Time

	debounce     time.Duration
	historyLimit int
	timeout      time.Duration

	// epoch only ever increases. Every admitted lookup captures the value
	// at admission; a result is applied only while its captured epoch is
	// still current.
	epoch uint64

	// busy guards the synchronous admission-and-apply phase. Lookups that
	// arrive while it is set are dropped, not queued. An already-issued
	// network call does not hold the guard; it is superseded through
	// cancellation and the epoch check.
	busy bool

	// cancel aborts the network call of the previous lookup, if any is
	// still outstanding. Cancellation is cooperative and best-effort; the
	// epoch check at apply time is the authoritative guard.
	cancel context.CancelFunc

	cache        map[string]*entry
	lastKey      string
	lastRenderAt time.Time
}

// New builds a Controller from cfg, filling unset knobs with defaults.
func New(cfg Config) *Controller {
	c := &Controller{
		client:       cfg.Client,
		view:         cfg.View,
		onError:      cfg.OnError,
		online:       cfg.Online,
		prefs:        cfg.Prefs,
		now:          cfg.Now,
		debounce:     cfg.DebounceWindow,
		historyLimit: cfg.HistoryLimit,
		timeout:      cfg.LookupTimeout,
		cache:        make(map[string]*entry),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.debounce == 0 {
		c.debounce = DefaultDebounceWindow
	}
	if c.historyLimit == 0 {
		c.historyLimit = DefaultHistoryLimit
	}
	if c.timeout == 0 {
		c.timeout = DefaultLookupTimeout
	}
	return c
}

// Close cancels any outstanding network call. The controller must not be
// used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Lookup runs one user-triggered lookup. It is fire-and-forget: outcomes
// are observed through the View and the OnError callback.
//
// Admission happens synchronously: normalization, the debounce and
// reentrancy guards, the epoch bump, cancellation of the previous in-flight
// call, and the cache check. On a cache hit the entry is applied before
// Lookup returns. On a miss, the network fetch runs in a goroutine tagged
// with the captured epoch.
func (c *Controller) Lookup(q PlaceQuery) {
	key := q.key()
	if key == "" {
		if q.Coords {
			c.report(ErrInvalidInput)
		}
		// Empty or whitespace-only text is a no-op.
		return
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return
	}
	if key == c.lastKey && c.now().Sub(c.lastRenderAt) < c.debounce {
		c.mu.Unlock()
		return
	}
	c.busy = true

	c.epoch++
	epoch := c.epoch
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if hit, ok := c.cache[key]; ok {
		c.mu.Unlock()
		c.apply(epoch, key, hit)
		c.clearBusy()
		return
	}

	if c.online != nil && !c.online() {
		c.mu.Unlock()
		c.report(ErrOffline)
		c.clearBusy()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.busy = false
	c.mu.Unlock()

	go c.fetch(ctx, cancel, epoch, key, q)
}

func (c *Controller) clearBusy() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// fetch performs the network call for an admitted lookup and reconciles the
// outcome against the current epoch.
func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, epoch uint64, key string, q PlaceQuery) {
	defer cancel()

	report, err := c.client.Lookup(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded by a newer lookup; expected, not an error.
			return
		}
		c.mu.Lock()
		stale := epoch != c.epoch
		c.mu.Unlock()
		if stale {
			return
		}
		// Prior rendered content stays in place; only the status changes.
		c.report(err)
		return
	}

	c.mu.Lock()
	if epoch != c.epoch {
		// A newer lookup was admitted while this one was in flight.
		c.mu.Unlock()
		return
	}
	e := &entry{place: report.Place, snapshot: report.snapshot()}
	c.storeEntry(key, e)
	c.mu.Unlock()

	c.apply(epoch, key, e)
}

// storeEntry writes an immutable cache entry under the query key and, when
// it differs, the normalized display name, so a later lookup by either form
// hits the cache. Existing entries are never overwritten. Callers hold mu.
func (c *Controller) storeEntry(key string, e *entry) {
	if _, exists := c.cache[key]; !exists {
		c.cache[key] = e
	}
	nameKey := strings.ToLower(strings.TrimSpace(e.place))
	if nameKey != "" && nameKey != key {
		if _, exists := c.cache[nameKey]; !exists {
			c.cache[nameKey] = e
		}
	}
}

// apply pushes an entry to the view if the captured epoch is still current,
// and updates the recency bookkeeping the debounce guard relies on.
func (c *Controller) apply(epoch uint64, key string, e *entry) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.lastKey = key
	c.lastRenderAt = c.now()
	view := c.view
	c.mu.Unlock()

	c.pushHistory(e.place)
	if view != nil {
		view.Render(e.place, e.snapshot)
	}
}

// report forwards a failure to the status callback, if one is set.
func (c *Controller) report(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// coordKey formats a coordinate pair at fixed two-decimal precision so
// nearby geolocation fixes share one cache key.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}
