package lottie

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
)

// gzipMagic prefixes gzip streams; TGS files are gzip-compressed Lottie JSON.
var gzipMagic = []byte{0x1f, 0x8b}

// ValidateFile reports whether the path looks like animation content this
// package reads (.json or .tgs).
func ValidateFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".tgs")
}

// ReadContent returns data unchanged when non-empty, otherwise reads the
// file at path, rejecting files over MaxFileSize.
func ReadContent(data []byte, path string) ([]byte, error) {
	if len(data) > 0 {
		return data, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: file too large: %d", ErrParseFailed, info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return content, nil
}

// unpackContent validates content size and inflates gzip-compressed (TGS)
// data, enforcing MaxFileSize both before and after decompression.
func unpackContent(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrParseFailed)
	}
	if len(content) > MaxFileSize {
		return nil, fmt.Errorf("%w: content too large: %d", ErrParseFailed, len(content))
	}
	if !bytes.HasPrefix(content, gzipMagic) {
		return content, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer reader.Close()

	unpacked, err := io.ReadAll(io.LimitReader(reader, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if len(unpacked) > MaxFileSize {
		return nil, fmt.Errorf("%w: unpacked content too large", ErrParseFailed)
	}
	return unpacked, nil
}

// initShared unpacks and validates content, opens a decoder through factory
// and builds the frame ring for the request. It returns ErrParseFailed for
// unreadable content and ErrNotSupported for animations outside playable
// limits.
func initShared(content []byte, factory DecoderFactory, cache Cache, request FrameRequest) (*SharedState, error) {
	unpacked, err := unpackContent(content)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(unpacked); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON document", ErrParseFailed)
	}
	decoder, err := factory(unpacked)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	var state *SharedState
	if cache != nil {
		state = NewCachedSharedState(unpacked, decoder, cache, factory, request)
	} else {
		state = NewSharedState(decoder, request)
	}
	if !state.IsValid() {
		return nil, ErrNotSupported
	}
	return state, nil
}

// Parse unpacks and validates content and builds a frame ring for it without
// starting playback, for callers that only need the animation's properties or
// a synchronously rendered frame. Playback goes through Player instead.
func Parse(content []byte, factory DecoderFactory, cache Cache, request FrameRequest) (*SharedState, error) {
	return initShared(content, factory, cache, request)
}

// ReadThumbnail synchronously renders the animation's first frame at its
// natural size, or returns nil when the content cannot be played.
func ReadThumbnail(content []byte, factory DecoderFactory) *image.RGBA {
	state, err := initShared(content, factory, nil, FrameRequest{})
	if err != nil {
		return nil
	}
	return state.frames[0].Original
}
