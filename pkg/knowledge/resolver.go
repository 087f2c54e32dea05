package knowledge

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store looks up reference entries.
type Store interface {
	// Definition returns the entry stored under exactly key.
	Definition(ctx context.Context, key string) (Entry, bool, error)
	// ContainingDefinition returns an entry whose identifier occurs
	// inside identifier. When several do, the longest one wins.
	ContainingDefinition(ctx context.Context, identifier string) (Entry, bool, error)
}

// History keeps an append-only log of removed components.
type History interface {
	LogRemoval(ctx context.Context, identifier, kind string) error
}

// Logger abstracts logging so callers can plug in logrus or anything else.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

const defaultCacheSize = 1024

// Resolver maps raw dism identifiers to knowledge. It never fails: a
// missing store, a missing entry or a store error all yield DefaultInfo.
type Resolver struct {
	store   Store
	history History
	cache   *lru.Cache[string, Info]
	log     Logger
}

type Option func(*Resolver)

// WithHistory sets where RecordRemoval writes to.
func WithHistory(h History) Option {
	return func(r *Resolver) { r.history = h }
}

func WithLogger(l Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithCacheSize bounds the resolved-identifier cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if n <= 0 {
			r.cache = nil
			return
		}
		if c, err := lru.New[string, Info](n); err == nil {
			r.cache = c
		}
	}
}

// NewResolver builds a resolver over store. A nil store is allowed and
// makes every lookup return DefaultInfo.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, log: nopLogger{}}
	WithCacheSize(defaultCacheSize)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loaded reports whether the resolver has a backing store.
func (r *Resolver) Loaded() bool {
	return r != nil && r.store != nil
}

// Candidates lists the exact-match keys tried for identifier, in order:
// the identifier itself, the part before the first '~' (package
// version and hash) and the part before the first '_' (appx version and
// architecture).
func Candidates(identifier string) []string {
	out := make([]string, 0, 3)
	add := func(key string) {
		if key == "" {
			return
		}
		for _, k := range out {
			if k == key {
				return
			}
		}
		out = append(out, key)
	}

	add(identifier)
	if i := strings.IndexByte(identifier, '~'); i >= 0 {
		add(identifier[:i])
	}
	if i := strings.IndexByte(identifier, '_'); i >= 0 {
		add(identifier[:i])
	}
	return out
}

// Resolve returns what is known about identifier. Exact candidates are
// tried first; containment of a stored key is the last resort, so short
// generic keys can match unrelated longer identifiers.
func (r *Resolver) Resolve(ctx context.Context, identifier string) Info {
	if !r.Loaded() {
		return DefaultInfo()
	}
	if r.cache != nil {
		if info, ok := r.cache.Get(identifier); ok {
			return info
		}
	}

	info, ok := r.lookup(ctx, identifier)
	if !ok {
		return DefaultInfo()
	}
	info.Description = withKBQuery(info.Description, identifier)

	if r.cache != nil {
		r.cache.Add(identifier, info)
	}
	return info
}

// lookup walks the rule chain. ok is false only when the store failed.
func (r *Resolver) lookup(ctx context.Context, identifier string) (Info, bool) {
	for _, key := range Candidates(identifier) {
		e, found, err := r.store.Definition(ctx, key)
		if err != nil {
			r.log.Debugf("Knowledge lookup for %s failed: %v", key, err)
			return Info{}, false
		}
		if found {
			return e.Info(), true
		}
	}

	if identifier == "" {
		return DefaultInfo(), true
	}
	e, found, err := r.store.ContainingDefinition(ctx, identifier)
	if err != nil {
		r.log.Debugf("Knowledge containment lookup for %s failed: %v", identifier, err)
		return Info{}, false
	}
	if found {
		return e.Info(), true
	}
	return DefaultInfo(), true
}

// RecordRemoval appends identifier to the removal history. Failures are
// logged and dropped; losing history never blocks a removal.
func (r *Resolver) RecordRemoval(ctx context.Context, identifier, kind string) {
	if r == nil || r.history == nil {
		return
	}
	if err := r.history.LogRemoval(ctx, identifier, kind); err != nil {
		r.log.Debugf("Could not record removal of %s: %v", identifier, err)
	}
}

const updateCatalogHost = "catalog.update.microsoft.com"

// withKBQuery fills an empty update catalog search ("q=)") with the KB
// number found in identifier. A query that already has text is left alone.
func withKBQuery(description, identifier string) string {
	if !strings.Contains(description, updateCatalogHost) {
		return description
	}
	kb := kbToken(identifier)
	if kb == "" {
		return description
	}
	q := strings.Index(description, "q=")
	if q < 0 || q+2 >= len(description) || description[q+2] != ')' {
		return description
	}
	return description[:q+2] + kb + description[q+2:]
}

// kbToken returns the first "KB" followed by digits in s, e.g. "KB5001330".
func kbToken(s string) string {
	for start := 0; start < len(s); {
		i := strings.Index(s[start:], "KB")
		if i < 0 {
			return ""
		}
		i += start
		end := i + 2
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end > i+2 {
			return s[i:end]
		}
		start = i + 2
	}
	return ""
}
