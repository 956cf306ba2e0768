package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/flatbuffers/go/flexbuffers"
)

// FlexbuffersCodec implements Codec over length-prefixed Flexbuffers frames
// (spec.md §4.5, §6.3): a 4-byte big-endian length prefix followed by that
// many bytes of a schema-less Flexbuffers root value.
//
// Rather than re-deriving the tagged-variant encoding rules a second time,
// the codec reuses JSONCodec's wrap/unwrap helpers: a message is rendered to
// its canonical tagged-JSON shape (which is where MarshalJSON/UnmarshalJSON
// on Action, TimeControl and PlayerSide already live), walked into a
// generic map/slice/scalar tree, and that tree is what actually gets
// written as a Flexbuffers value. Decoding reverses the walk and feeds the
// reconstructed JSON back through the same unwrap functions.
type FlexbuffersCodec struct {
	rw io.ReadWriter
}

// NewFlexbuffersCodec wraps rw for length-prefixed Flexbuffers frames.
func NewFlexbuffersCodec(rw io.ReadWriter) *FlexbuffersCodec {
	return &FlexbuffersCodec{rw: rw}
}

func (c *FlexbuffersCodec) writeFrame(v any) error {
	js, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: flexbuffers encode: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return fmt.Errorf("wire: flexbuffers encode: %w", err)
	}

	b := flexbuffers.NewBuilder()
	encodeGeneric(b, "", generic)
	body := b.Finish()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := c.rw.Write(header[:]); err != nil {
		return fmt.Errorf("wire: flexbuffers write: %w", err)
	}
	if _, err := c.rw.Write(body); err != nil {
		return fmt.Errorf("wire: flexbuffers write: %w", err)
	}
	return nil
}

func (c *FlexbuffersCodec) readFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("wire: flexbuffers read: %w", err)
	}
	n := binary.BigEndian.Uint32(header[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(c.rw, body); err != nil {
		return nil, fmt.Errorf("wire: flexbuffers read: %w", err)
	}

	root := flexbuffers.GetRoot(body)
	generic := decodeGeneric(root)
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("wire: flexbuffers decode: %w", err)
	}
	return js, nil
}

func (c *FlexbuffersCodec) SendRequest(r Request) error  { return c.writeFrame(wrapRequest(r)) }
func (c *FlexbuffersCodec) SendResponse(r Response) error { return c.writeFrame(wrapResponse(r)) }

func (c *FlexbuffersCodec) RecvRequest() (Request, error) {
	js, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	return unwrapRequest(js)
}

func (c *FlexbuffersCodec) RecvResponse() (Response, error) {
	js, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	return unwrapResponse(js)
}

// encodeGeneric writes a JSON-shaped value (as produced by
// json.Unmarshal(..., *any)) into a Flexbuffers builder. key is the map key
// this value is being pushed under, or "" for the document root and for
// vector elements (which carry no key), matching the Flexbuffers builder's
// key-per-push convention.
func encodeGeneric(b *flexbuffers.Builder, key string, v any) {
	switch val := v.(type) {
	case nil:
		b.Null(key)
	case bool:
		b.Bool(key, val)
	case float64:
		b.Float(key, val)
	case string:
		b.String(key, val)
	case map[string]any:
		b.Map(key, func() {
			for k, vv := range val {
				encodeGeneric(b, k, vv)
			}
		})
	case []any:
		b.Vector(key, func() {
			for _, vv := range val {
				encodeGeneric(b, "", vv)
			}
		})
	default:
		panic(fmt.Sprintf("wire: flexbuffers: unsupported generic value %T", v))
	}
}

// decodeGeneric is the inverse of encodeGeneric, walking a Flexbuffers
// reference back into the same JSON-shaped tree.
func decodeGeneric(r flexbuffers.Reference) any {
	switch {
	case r.IsNull():
		return nil
	case r.IsBool():
		return r.ToBool()
	case r.IsString():
		return r.ToString()
	case r.IsInt():
		return float64(r.ToInt())
	case r.IsUInt():
		return float64(r.ToUInt())
	case r.IsFloat():
		return r.ToFloat()
	case r.IsMap():
		m := r.ToMap()
		keys := m.Keys()
		out := make(map[string]any, keys.Len())
		for i := 0; i < keys.Len(); i++ {
			k := keys.Index(i).ToString()
			out[k] = decodeGeneric(m.Get(k))
		}
		return out
	case r.IsVector():
		v := r.ToVector()
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = decodeGeneric(v.Index(i))
		}
		return out
	default:
		panic("wire: flexbuffers: reference of unrecognized type")
	}
}
