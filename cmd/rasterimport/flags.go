package main

import (
	"fmt"
	"math"
	"time"

	"github.com/mappingcore/geodb/internal/codec"
)

// parseTimeFlag parses an RFC3339 timestamp into a Unix-seconds float, or
// returns def for an empty flag so that an unbounded --time-start/--time-end
// behaves like the omitted bound in a §6.2 external source descriptor.
func parseTimeFlag(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return float64(t.Unix()), nil
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

func parseCompression(name string) (codec.Tag, error) {
	switch name {
	case "raw":
		return codec.TagRaw, nil
	case "zstd":
		return codec.TagZstd, nil
	case "brotli":
		return codec.TagBrotli, nil
	case "webp":
		return codec.TagWebPLossy, nil
	default:
		return 0, fmt.Errorf("unknown --compression %q (want raw, zstd, brotli or webp)", name)
	}
}
