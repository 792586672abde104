// Package ipc implements the framing protocol spoken between the core and the
// external rendering engine: 4-byte big-endian length prefix followed by a
// msgpack payload, one fetch request out and one fetch response back per
// attempt.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/stratum/types"
)

const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// Frame type discriminants.
const (
	FetchRequestType  = "fetch_request"
	FetchResponseType = "fetch_response"
)

// Renderer-side error kinds carried in a FetchResponseFrame.
const (
	ErrorKindNavigation = "navigation"
	ErrorKindTimeout    = "timeout"
)

// FrameErrorKind classifies frame encoding and decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a framing protocol error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if this error must terminate the renderer session.
// Partial and oversized frames leave the stream position unknown, so the
// session cannot continue past them.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FetchRequestFrame is the request sent to the rendering engine.
type FetchRequestFrame struct {
	Type      string               `msgpack:"type"`
	URL       string               `msgpack:"url"`
	Headers   map[string]string    `msgpack:"headers,omitempty"`
	TimeoutMS int64                `msgpack:"timeout_ms"`
	Proxy     *types.ProxyEndpoint `msgpack:"proxy,omitempty"`
}

// FetchResponseFrame is the response read back from the rendering engine.
// Exactly one of the two shapes is populated: a delivered page (Status,
// Headers, Body) or a failure (ErrorKind, Error).
type FetchResponseFrame struct {
	Type      string            `msgpack:"type"`
	Status    int               `msgpack:"status"`
	Headers   map[string]string `msgpack:"headers,omitempty"`
	Body      []byte            `msgpack:"body,omitempty"`
	ErrorKind string            `msgpack:"error_kind,omitempty"`
	Error     string            `msgpack:"error,omitempty"`
}

// NewFetchRequestFrame converts a fetch request into its wire form.
func NewFetchRequestFrame(req *types.FetchRequest) *FetchRequestFrame {
	return &FetchRequestFrame{
		Type:      FetchRequestType,
		URL:       req.URL,
		Headers:   req.Headers,
		TimeoutMS: req.Timeout.Milliseconds(),
		Proxy:     req.Proxy,
	}
}

// Result converts a successful response frame into a fetch result.
func (f *FetchResponseFrame) Result() *types.FetchResult {
	return &types.FetchResult{
		Status:  f.Status,
		Headers: f.Headers,
		Body:    f.Body,
	}
}

// FrameEncoder writes length-prefixed msgpack frames to a stream.
type FrameEncoder struct {
	writer io.Writer
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteFrame marshals v and writes it as a single frame.
func (e *FrameEncoder) WriteFrame(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to encode frame payload",
			Err:  err,
		}
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := e.writer.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := e.writer.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame from the stream.
// Returns the raw payload bytes (msgpack-encoded).
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// ReadFetchResponse reads and decodes the next frame as a fetch response.
func (d *FrameDecoder) ReadFetchResponse() (*FetchResponseFrame, error) {
	payload, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeFetchResponse(payload)
}

// DecodeFetchResponse decodes a payload as a FetchResponseFrame.
func DecodeFetchResponse(payload []byte) (*FetchResponseFrame, error) {
	var frame FetchResponseFrame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode fetch response",
			Err:  err,
		}
	}
	if frame.Type != FetchResponseType {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unexpected frame type %q", frame.Type),
		}
	}
	return &frame, nil
}

// DecodeFetchRequest decodes a payload as a FetchRequestFrame. The rendering
// engine side of the protocol uses it; the core only encodes requests.
func DecodeFetchRequest(payload []byte) (*FetchRequestFrame, error) {
	var frame FetchRequestFrame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode fetch request",
			Err:  err,
		}
	}
	if frame.Type != FetchRequestType {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unexpected frame type %q", frame.Type),
		}
	}
	return &frame, nil
}
