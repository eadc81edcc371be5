package codec

import (
	"bytes"
	"testing"

	"github.com/mappingcore/geodb/internal/raster"
)

func TestMain(m *testing.M) {
	RegisterDefaults()
	m.Run()
}

func sampleBuffer(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i * 7 % 251)
	}
	return buf
}

func TestLosslessCodecsRoundTrip(t *testing.T) {
	raw := sampleBuffer(64 * 64)
	for _, tag := range []Tag{TagRaw, TagZstd, TagBrotli} {
		c, err := Lookup(tag)
		if err != nil {
			t.Fatalf("tag %d: %v", tag, err)
		}
		encoded := c.Encode(raw, raster.U8, 64, 64, 1)
		decoded, err := c.Decode(encoded, raster.U8, 64, 64, 1)
		if err != nil {
			t.Fatalf("tag %d decode: %v", tag, err)
		}
		if !bytes.Equal(raw, decoded) {
			t.Fatalf("tag %d: round trip mismatch", tag)
		}
	}
}

func TestLookupUnknownTag(t *testing.T) {
	if _, err := Lookup(99); err == nil {
		t.Fatal("expected error for unregistered tag")
	}
}

func TestWebPLossyRoundTripPreservesSize(t *testing.T) {
	c, err := Lookup(TagWebPLossy)
	if err != nil {
		t.Fatal(err)
	}
	raw := sampleBuffer(32 * 32)
	encoded := c.Encode(raw, raster.U8, 32, 32, 1)
	decoded, err := c.Decode(encoded, raster.U8, 32, 32, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(raw) {
		t.Fatalf("expected %d bytes back, got %d", len(raw), len(decoded))
	}
}
