package jwt

import (
	"bytes"
	"sync"

	"github.com/cloudwego/base64x"
	"github.com/goccy/go-json"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 512)
	},
}

// encodeSegment encodes data to unpadded base64url using the shared buffer pool
func encodeSegment(data []byte) string {
	encodeBuf := bufPool.Get().([]byte) //nolint:errcheck // sync.Pool.Get never returns error
	origBuf := encodeBuf
	defer func() {
		bufPool.Put(origBuf[:0]) //nolint:staticcheck // slice is converted to interface{} which is correct
	}()

	encodedLen := base64x.RawURLEncoding.EncodedLen(len(data))
	if cap(encodeBuf) < encodedLen {
		encodeBuf = make([]byte, encodedLen)
	}
	encodeBuf = encodeBuf[:encodedLen]

	base64x.RawURLEncoding.Encode(encodeBuf, data)
	return string(encodeBuf)
}

// decodeSegment decodes an unpadded base64url segment
func decodeSegment(encoded string) ([]byte, error) {
	decodeBuf := bufPool.Get().([]byte) //nolint:errcheck // sync.Pool.Get never returns error
	origBuf := decodeBuf
	defer func() {
		bufPool.Put(origBuf[:0]) //nolint:staticcheck // slice is converted to interface{} which is correct
	}()

	decodedLen := base64x.RawURLEncoding.DecodedLen(len(encoded))
	if cap(decodeBuf) < decodedLen {
		decodeBuf = make([]byte, decodedLen)
	}
	decodeBuf = decodeBuf[:decodedLen]

	n, err := base64x.RawURLEncoding.Decode(decodeBuf, []byte(encoded))
	if err != nil {
		return nil, err
	}

	result := make([]byte, n)
	copy(result, decodeBuf[:n])
	return result, nil
}

// dataSet is an insertion-ordered set of JSON members. Setting an existing
// key replaces its value in place.
type dataSet struct {
	keys   []string
	values map[string]any
}

func newDataSet() *dataSet {
	return &dataSet{values: make(map[string]any)}
}

func (d *dataSet) set(key string, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d *dataSet) get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// marshal encodes the members in insertion order.
func (d *dataSet) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, &claimEncodingError{name: key, cause: err}
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type claimEncodingError struct {
	name  string
	cause error
}

func (e *claimEncodingError) Error() string {
	return "encode " + e.name + ": " + e.cause.Error()
}

func (e *claimEncodingError) Unwrap() error {
	return e.cause
}
