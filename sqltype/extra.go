package sqltype

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// UUID returns the converter for UUID columns, carried on the wire as
// 36-character text for portability across backends.
func UUID() ValueType[uuid.UUID] {
	return New("uuid",
		func(v uuid.UUID) (any, error) { return v.String(), nil },
		func(src any) (uuid.UUID, error) {
			switch s := src.(type) {
			case string:
				return uuid.Parse(s)
			case []byte:
				if len(s) == 16 {
					return uuid.FromBytes(s)
				}
				return uuid.ParseBytes(s)
			case nil:
				return uuid.Nil, errNull("uuid")
			}
			return uuid.Nil, scanErr[uuid.UUID](src, "uuid")
		})
}

// Object returns a converter that stores T as a msgpack-encoded binary
// column. It suits structured payloads that are opaque to the database.
func Object[T any]() ValueType[T] {
	return New("blob",
		func(v T) (any, error) {
			b, err := msgpack.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("sqltype: encode object: %w", err)
			}
			return b, nil
		},
		func(src any) (T, error) {
			var v T
			var b []byte
			switch s := src.(type) {
			case []byte:
				b = s
			case string:
				b = []byte(s)
			case nil:
				return v, errNull("blob")
			default:
				return v, scanErr[T](src, "blob")
			}
			if err := msgpack.Unmarshal(b, &v); err != nil {
				return v, fmt.Errorf("sqltype: decode object: %w", err)
			}
			return v, nil
		})
}
