package domain

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// CacheKey addresses a cache entry by resource and variant parameters.
// A key without parameters is resource-wide: when used to cancel or invalidate,
// it matches every variant of the resource.
type CacheKey struct {
	Resource ResourceName
	params   string // canonical "k=v&k=v", sorted by key
}

// ResourceKey returns the resource-wide key for r.
func ResourceKey(r ResourceName) CacheKey {
	return CacheKey{Resource: r}
}

// NewCacheKey creates a key for a resource variant.
// Parameters with an empty value are dropped.
func NewCacheKey(r ResourceName, params map[string]string) CacheKey {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, k := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	return CacheKey{Resource: r, params: b.String()}
}

// ParseCacheKey parses the String form of a key.
func ParseCacheKey(s string) CacheKey {
	resource, params, _ := strings.Cut(s, "?")
	return CacheKey{Resource: ResourceName(resource), params: params}
}

// Param returns the value of a variant parameter.
func (k CacheKey) Param(name string) string {
	for pair := range strings.SplitSeq(k.params, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if ok && key == name {
			return value
		}
	}
	return ""
}

// IsResourceWide reports whether the key carries no variant parameters.
func (k CacheKey) IsResourceWide() bool {
	return k.params == ""
}

// Matches reports whether k addresses other: either they are equal,
// or k is resource-wide for the same resource.
func (k CacheKey) Matches(other CacheKey) bool {
	if k.Resource != other.Resource {
		return false
	}
	return k.params == "" || k.params == other.params
}

// Digest returns a stable 64-bit hash of the key.
func (k CacheKey) Digest() uint64 {
	return xxhash.Sum64String(k.String())
}

func (k CacheKey) String() string {
	if k.params == "" {
		return string(k.Resource)
	}
	return string(k.Resource) + "?" + k.params
}

// MarshalText implements encoding.TextMarshaler.
func (k CacheKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CacheKey) UnmarshalText(text []byte) error {
	*k = ParseCacheKey(string(text))
	return nil
}
