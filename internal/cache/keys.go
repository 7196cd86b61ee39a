package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const keyPrefix = "argus"

// Key joins parts under the shared namespace: argus:quote:AAPL.
func Key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

// ParamsKey hashes a parameter struct into a short stable suffix, used for
// keys whose parameter space is too wide to inline (screener, search).
func ParamsKey(kind string, params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return Key(kind, "default")
	}
	sum := md5.Sum(raw)
	return Key(kind, hex.EncodeToString(sum[:])[:12])
}

// Pattern returns a glob for invalidating every key of a kind.
func Pattern(kind string) string {
	return keyPrefix + ":" + kind + ":*"
}
