package wire

import "io"

// Codec is the symmetric duplex spec.md §4.5 describes: send and receive
// whole messages over a byte-oriented stream, with framing and tagging
// handled internally. A connection starts on JSONCodec for the bootstrap
// handshake and may switch to FlexbuffersCodec once negotiation completes.
type Codec interface {
	SendRequest(Request) error
	RecvRequest() (Request, error)
	SendResponse(Response) error
	RecvResponse() (Response, error)
}

// NewCodec returns the Codec for format over rw.
func NewCodec(format Format, rw io.ReadWriter) Codec {
	if format == FormatFlexbuffers {
		return NewFlexbuffersCodec(rw)
	}
	return NewJSONCodec(rw)
}
