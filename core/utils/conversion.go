package utils

import (
	"fmt"
	"strconv"
	"time"
)

// Canonical converts a scalar database value to its canonical string form.
// Logically identical values scanned as different Go types (int64 vs float64
// vs []byte, driver-dependent) must map to the same string, since row
// signatures are computed over these forms.
//
// nil is encoded as "\x00" so a NULL column never collides with an empty
// string.
func Canonical(val any) (string, error) {
	switch v := val.(type) {
	case nil:
		return "\x00", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case float64:
		// 'g' with -1 precision is the shortest representation that
		// round-trips, so 1.0 from two different runs always matches.
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", val)
	}
}
