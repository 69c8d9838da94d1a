package tikakit

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// hashString returns the hex xxhash of s
func hashString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// hashOptions returns a stable hash of opts. Nil and zero options hash the same.
func hashOptions(opts *Options) string {
	if opts.IsZero() {
		return "0"
	}
	// Options marshal through a map, so field order is stable.
	data, err := json.Marshal(opts)
	if err != nil {
		return "0"
	}
	h := xxhash.New()
	_, _ = h.Write(data)
	return strconv.FormatUint(h.Sum64(), 16)
}
