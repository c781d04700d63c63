package hywire

import (
	"fmt"
	"reflect"

	"github.com/hywire/hywire/lib/encoding"
)

// Snapshotter round-trips signal state through compact, URL-safe tokens
// so state survives page transitions and reconnects.
//
//	snap, _ := hywire.NewSnapshotter([]byte(secret))
//	token, _ := snap.Export(rt)
//	// ... later, on a fresh page ...
//	err := snap.Restore(rt, token)
//
// Tokens are signed by default (readable but tamper-proof). Sensitive
// state can be encrypted instead with ExportSensitive/RestoreSensitive.
type Snapshotter struct {
	codec *encoding.Codec
}

// NewSnapshotter creates a snapshotter from a secret key. The same key
// must be used to export and restore.
func NewSnapshotter(key []byte) (*Snapshotter, error) {
	codec, err := encoding.New(key)
	if err != nil {
		return nil, err
	}
	return &Snapshotter{codec: codec}, nil
}

// Export captures the runtime's current signal tree as a signed token.
func (s *Snapshotter) Export(rt *Runtime) (string, error) {
	return s.codec.Encode(rt.Signals().Snapshot(), false)
}

// ExportSensitive captures the signal tree as an encrypted token.
func (s *Snapshotter) ExportSensitive(rt *Runtime) (string, error) {
	return s.codec.Encode(rt.Signals().Snapshot(), true)
}

// Restore merges a signed token's signal tree into the runtime's store.
// Returns ErrInvalidFormat or ErrSignatureInvalid when the token cannot
// be trusted; signal state is untouched on error.
func (s *Snapshotter) Restore(rt *Runtime, token string) error {
	return s.restore(rt, token, false)
}

// RestoreSensitive merges an encrypted token's signal tree into the
// runtime's store.
func (s *Snapshotter) RestoreSensitive(rt *Runtime, token string) error {
	return s.restore(rt, token, true)
}

func (s *Snapshotter) restore(rt *Runtime, token string, sensitive bool) error {
	tree, err := s.codec.Decode(token, sensitive)
	if err != nil {
		return wrapEncodingError(err)
	}
	normalizeTree(tree)
	rt.doc.Run(func() {
		rt.store.Merge(tree)
		rt.scheduleApply()
	})
	return nil
}

// normalizeTree rewrites msgpack's decoded shapes back into the JSON
// shapes the signal store and expressions expect: all numbers become
// float64 and map[any]any becomes map[string]any.
func normalizeTree(tree map[string]any) {
	for k, v := range tree {
		tree[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		normalizeTree(v)
		return v
	case []any:
		for i, e := range v {
			v[i] = normalizeValue(e)
		}
		return v
	case nil, bool, string, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[fmt.Sprintf("%v", key.Interface())] = normalizeValue(rv.MapIndex(key).Interface())
		}
		return out
	}
	return v
}
