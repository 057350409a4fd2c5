package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// toFields turns loose key/value arguments into zap fields. A bare error
// becomes the "error" field, zap.Field values pass through, and a trailing
// unpaired value is kept under an "arg#N" key rather than dropped.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		i += 2

		name, ok := key.(string)
		if !ok {
			name = fmt.Sprintf("%v", key)
		}

		switch v := val.(type) {
		case string:
			fields = append(fields, zap.String(name, v))
		case bool:
			fields = append(fields, zap.Bool(name, v))
		case int:
			fields = append(fields, zap.Int(name, v))
		case int64:
			fields = append(fields, zap.Int64(name, v))
		case uint32:
			fields = append(fields, zap.Uint32(name, v))
		case float64:
			fields = append(fields, zap.Float64(name, v))
		case time.Duration:
			fields = append(fields, zap.Duration(name, v))
		case time.Time:
			fields = append(fields, zap.Time(name, v))
		case []string:
			fields = append(fields, zap.Strings(name, v))
		case error:
			fields = append(fields, zap.NamedError(name, v))
		case fmt.Stringer:
			fields = append(fields, zap.Stringer(name, v))
		default:
			fields = append(fields, zap.Any(name, v))
		}
	}
	return fields
}
