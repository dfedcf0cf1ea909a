package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// JSONValue converts a value read from the database into a JSON-safe
// scalar for the column kind.
func JSONValue(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case KindInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int32:
			return int64(x), nil
		case int:
			return int64(x), nil
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("non-integral value %v", x)
			}
			return int64(x), nil
		}
		return strconv.ParseInt(asString(v), 10, 64)

	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
		return strconv.ParseFloat(asString(v), 64)

	case KindDecimal:
		switch x := v.(type) {
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		}
		s := asString(v)
		if _, ok := new(big.Rat).SetString(s); !ok {
			return nil, fmt.Errorf("invalid decimal %q", s)
		}
		return s, nil

	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
		return strconv.ParseBool(asString(v))

	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
		return asString(v), nil

	case KindJSON:
		s := asString(v)
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("invalid json document")
		}
		return s, nil

	default:
		return asString(v), nil
	}
}

// ColumnValue converts a snapshot value back into a driver argument for
// the column kind.
func ColumnValue(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case KindInt:
		switch x := v.(type) {
		case json.Number:
			return x.Int64()
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("non-integral value %v", x)
			}
			return int64(x), nil
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		}

	case KindFloat:
		switch x := v.(type) {
		case json.Number:
			return x.Float64()
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(x), 64)
		}

	case KindDecimal:
		var s string
		switch x := v.(type) {
		case json.Number:
			s = x.String()
		case string:
			s = strings.TrimSpace(x)
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case int64:
			s = strconv.FormatInt(x, 10)
		default:
			return nil, fmt.Errorf("cannot use %T as decimal", v)
		}
		if _, ok := new(big.Rat).SetString(s); !ok {
			return nil, fmt.Errorf("invalid decimal %q", s)
		}
		return s, nil

	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case json.Number:
			n, err := x.Int64()
			if err != nil {
				return nil, err
			}
			return n != 0, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(x))
		}

	case KindTime:
		s, ok := v.(string)
		if !ok {
			if t, isTime := v.(time.Time); isTime {
				return t.UTC(), nil
			}
			break
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", s)
		}
		return t.UTC(), nil

	case KindJSON:
		s, ok := v.(string)
		if !ok {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			s = string(raw)
		}
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("invalid json document")
		}
		return s, nil

	default:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
		return fmt.Sprint(v), nil
	}

	return nil, fmt.Errorf("cannot use %T as %s", v, kind)
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// Coerce maps a snapshot onto the entity's columns. Keys that are not
// columns are ignored; columns absent from the snapshot are left out.
func (e *Entity) Coerce(snapshot map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(e.Columns))
	for _, c := range e.Columns {
		raw, ok := snapshot[c.Name]
		if !ok {
			continue
		}
		v, err := ColumnValue(c.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		if v == nil && !c.Nullable && c.Name != e.PrimaryKey {
			return nil, fmt.Errorf("column %s: null value for non-nullable column", c.Name)
		}
		out[c.Name] = v
	}

	if out[e.PrimaryKey] == nil || out[e.PrimaryKey] == "" {
		return nil, fmt.Errorf("column %s: primary key is missing", e.PrimaryKey)
	}
	return out, nil
}
