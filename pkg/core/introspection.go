package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	CacheSize     int    `json:"cache_size"`
	CacheComplete bool   `json:"cache_complete"`
	ReadOnly      bool   `json:"read_only"`
	IndexType     string `json:"index_type"`
	ContentType   string `json:"content_type"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{
		CacheSize:     s.cache.Len(),
		CacheComplete: s.cache.Complete(),
		ReadOnly:      s.readOnly,
		IndexType:     componentType(s.index, "index"),
		ContentType:   componentType(s.content, "content"),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

func componentType(v any, fallback string) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
