package formmeta

import (
	"fmt"
	"strings"
)

// FieldDelimiter separates the fields of a composite value. Two characters
// so that single pipes inside field values survive a round trip.
const FieldDelimiter = "||"

// EncodeFields serializes fields into a single delimited string, joining
// fields[key] (empty string when absent) for each key in keys, in that
// order. The key order must be stable across encode and decode; it is
// supplied externally so the wire form is independent of any struct or
// form field declaration order.
func EncodeFields(fields map[string]string, keys []string) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fields[key]
	}
	return strings.Join(parts, FieldDelimiter)
}

// DecodeFields splits value on the field delimiter and zips the pieces to
// keys positionally. A value with fewer pieces than keys is corrupt and
// yields ErrCorruptValue; extra trailing pieces are ignored.
func DecodeFields(value string, keys []string) (map[string]string, error) {
	parts := strings.Split(value, FieldDelimiter)
	if len(parts) < len(keys) {
		return nil, fmt.Errorf("%w: %d fields, want at least %d", ErrCorruptValue, len(parts), len(keys))
	}
	fields := make(map[string]string, len(keys))
	for i, key := range keys {
		fields[key] = parts[i]
	}
	return fields, nil
}
