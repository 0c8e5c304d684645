package lottie

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-drift/lottie/pkg/graphics"
)

const minimalJSON = `{"w":8,"h":8,"fr":30,"ip":0,"op":30}`

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testFactory(width, height int, rate float64, count int) DecoderFactory {
	return func(content []byte) (Decoder, error) {
		return newTestDecoder(width, height, rate, count), nil
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"sticker.tgs", true},
		{"animation.json", true},
		{"STICKER.TGS", true},
		{"dir/anim.JSON", true},
		{"image.png", false},
		{"archive.tgs.gz", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := ValidateFile(tt.path); got != tt.want {
			t.Errorf("ValidateFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReadContent(t *testing.T) {
	t.Run("prefers data", func(t *testing.T) {
		got, err := ReadContent([]byte("inline"), "/nonexistent")
		if err != nil || string(got) != "inline" {
			t.Fatalf("ReadContent = %q, %v", got, err)
		}
	})
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "anim.json")
		if err := os.WriteFile(path, []byte(minimalJSON), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ReadContent(nil, path)
		if err != nil || string(got) != minimalJSON {
			t.Fatalf("ReadContent = %q, %v", got, err)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadContent(nil, filepath.Join(t.TempDir(), "missing.json"))
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("oversized file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "big.json")
		if err := os.WriteFile(path, make([]byte, MaxFileSize+1), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := ReadContent(nil, path)
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
}

func TestUnpackContent(t *testing.T) {
	t.Run("plain json passes through", func(t *testing.T) {
		got, err := unpackContent([]byte(minimalJSON))
		if err != nil || string(got) != minimalJSON {
			t.Fatalf("unpackContent = %q, %v", got, err)
		}
	})
	t.Run("gzip inflates", func(t *testing.T) {
		got, err := unpackContent(gzipped(t, []byte(minimalJSON)))
		if err != nil || string(got) != minimalJSON {
			t.Fatalf("unpackContent = %q, %v", got, err)
		}
	})
	t.Run("empty rejected", func(t *testing.T) {
		if _, err := unpackContent(nil); !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("oversized packed rejected", func(t *testing.T) {
		if _, err := unpackContent(make([]byte, MaxFileSize+1)); !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("oversized unpacked rejected", func(t *testing.T) {
		// A bomb: small on the wire, over the limit inflated.
		packed := gzipped(t, make([]byte, MaxFileSize+1))
		if len(packed) > MaxFileSize {
			t.Fatal("test content did not compress")
		}
		if _, err := unpackContent(packed); !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("corrupt gzip rejected", func(t *testing.T) {
		corrupt := append([]byte{0x1f, 0x8b}, []byte("garbage")...)
		if _, err := unpackContent(corrupt); !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
}

func TestInitShared(t *testing.T) {
	factory := testFactory(8, 8, 30, 30)

	t.Run("json content", func(t *testing.T) {
		state, err := initShared([]byte(minimalJSON), factory, nil, FrameRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if !state.IsValid() {
			t.Fatal("state invalid for playable content")
		}
	})
	t.Run("tgs content", func(t *testing.T) {
		state, err := initShared(gzipped(t, []byte(minimalJSON)), factory, nil, FrameRequest{})
		if err != nil || !state.IsValid() {
			t.Fatalf("state = %v, err = %v", state, err)
		}
	})
	t.Run("not a json document", func(t *testing.T) {
		_, err := initShared([]byte("<svg/>"), factory, nil, FrameRequest{})
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("factory failure", func(t *testing.T) {
		failing := func(content []byte) (Decoder, error) {
			return nil, errors.New("bad document")
		}
		_, err := initShared([]byte(minimalJSON), failing, nil, FrameRequest{})
		if !errors.Is(err, ErrParseFailed) {
			t.Fatalf("err = %v, want ErrParseFailed", err)
		}
	})
	t.Run("unplayable properties", func(t *testing.T) {
		_, err := initShared([]byte(minimalJSON), testFactory(0, 0, 30, 30), nil, FrameRequest{})
		if !errors.Is(err, ErrNotSupported) {
			t.Fatalf("err = %v, want ErrNotSupported", err)
		}
	})
	t.Run("with cache", func(t *testing.T) {
		cache := NewMemoryCache()
		state, err := initShared([]byte(minimalJSON), factory, cache, FrameRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if !state.IsValid() {
			t.Fatal("cached state invalid")
		}
		// The cover render went through the cache.
		if cache.FramesReady() != 1 {
			t.Fatalf("cache holds %d frames after setup, want 1", cache.FramesReady())
		}
	})
}

func TestReadThumbnail(t *testing.T) {
	thumb := ReadThumbnail([]byte(minimalJSON), testFactory(16, 12, 30, 30))
	if thumb == nil {
		t.Fatal("no thumbnail for playable content")
	}
	if got := graphics.SizeOf(thumb.Rect.Dx(), thumb.Rect.Dy()); got != graphics.SizeOf(16, 12) {
		t.Fatalf("thumbnail size = %+v, want 16x12", got)
	}
	if ReadThumbnail([]byte("not json"), testFactory(16, 12, 30, 30)) != nil {
		t.Fatal("thumbnail produced for unreadable content")
	}
}
