package hubspot

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/shohag/hsdest/internal/models"
)

// SchemaProvider resolves the property schema for a destination.
type SchemaProvider interface {
	GetProperties(ctx context.Context, dest models.Destination) (PropertySchema, error)
}

// FieldMapper turns message traits into HubSpot contact properties using a
// static mapping table plus the account's own property schema.
type FieldMapper struct {
	schemas SchemaProvider
}

func NewFieldMapper(schemas SchemaProvider) *FieldMapper {
	return &FieldMapper{schemas: schemas}
}

// GetTransformedJSON builds a fresh payload from the message traits. Static
// rules are applied first; every remaining trait whose normalized name is a
// known property is then copied under that name, with date properties
// truncated to UTC midnight in epoch milliseconds. Traits matching neither
// are dropped. The schema is only fetched when the message has traits.
func (m *FieldMapper) GetTransformedJSON(ctx context.Context, msg *models.Message, table *MappingTable, dest models.Destination) (map[string]any, error) {
	payload := map[string]any{}

	traits := traitsOf(msg)
	if traits == nil {
		return payload, nil
	}

	if table != nil {
		for _, r := range table.Rules {
			if v, ok := lookupTrait(traits, r.Source); ok && truthy(v) {
				setPath(payload, r.Destination, cloneValue(v))
			}
		}
	}

	schema, err := m.schemas.GetProperties(ctx, dest)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(traits))
	for k := range traits {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, done := payload[k]; done {
			continue
		}
		name, typ, ok := lookupProperty(schema, k)
		if !ok {
			continue
		}
		v := cloneValue(traits[k])
		if typ == propertyTypeDate {
			v = coerceDate(v)
		}
		payload[name] = v
	}
	return payload, nil
}

// lookupTrait resolves a mapping source path against traits. A leading
// "traits." segment is accepted.
func lookupTrait(traits map[string]any, path string) (any, bool) {
	if v, ok := getPath(traits, path); ok {
		return v, true
	}
	if rest, found := strings.CutPrefix(path, "traits."); found {
		return getPath(traits, rest)
	}
	return nil, false
}

func lookupProperty(schema PropertySchema, traitKey string) (name, typ string, ok bool) {
	name = NormalizeKey(traitKey)
	if typ, ok = schema[name]; ok {
		return name, typ, true
	}
	name = snakeKey(traitKey)
	typ, ok = schema[name]
	return name, typ, ok
}

// coerceDate returns the epoch milliseconds of UTC midnight on the day v
// denotes. Numbers are epoch milliseconds. Values that are not a
// recognizable time are returned unchanged.
func coerceDate(v any) any {
	var t time.Time
	switch tv := v.(type) {
	case nil, bool:
		return v
	case time.Time:
		t = tv
	case string:
		parsed, err := cast.ToTimeE(tv)
		if err != nil {
			return v
		}
		t = parsed
	default:
		ms, err := cast.ToFloat64E(tv)
		if err != nil {
			return v
		}
		t = time.UnixMilli(int64(ms))
	}
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

// cloneValue deep-copies JSON-shaped values so the payload never aliases
// the message.
func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
