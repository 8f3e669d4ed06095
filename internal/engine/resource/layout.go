// Package resource uploads CPU data to the device: immutable geometry
// buffers, dynamic constant buffers, and textures decoded from disk.
package resource

// Layout is a value with a fixed packed representation. Constant buffer
// layouts must have a ByteSize that is a multiple of 16.
type Layout interface {
	ByteSize() int
	AppendTo(b []byte) []byte
}

// Bytes packs l into a new slice of exactly l.ByteSize() bytes.
func Bytes(l Layout) []byte {
	return l.AppendTo(make([]byte, 0, l.ByteSize()))
}

// PackSlice packs every element of items back to back.
func PackSlice[T Layout](items []T) []byte {
	if len(items) == 0 {
		return nil
	}
	b := make([]byte, 0, len(items)*items[0].ByteSize())
	for _, it := range items {
		b = it.AppendTo(b)
	}
	return b
}
