package persistence

import (
	"bytes"
	"fmt"
	"strings"
)

// Collections used by the settlement store.
const (
	CollectionConfig          = "config"
	CollectionFeeWallet       = "fee_wallet"
	CollectionPoolTypeDetails = "pool_type_details"
	CollectionPoolDetails     = "pool_details"
	CollectionPoolTeamDetails = "pool_team_details"
	CollectionGameDetails     = "game_details"
	CollectionGameResult      = "game_result_dummy"
	CollectionSwapBalance     = "swap_balance_info"
)

// Singleton entries (config, fee wallet) live under this key part.
const SingletonKey = "singleton"

const partTerminator = 0x00

// Key addresses one entry: a collection plus one or more string parts.
// Pool team lists use the two parts (pool_id, gamer_address).
type Key struct {
	Collection string
	Parts      []string
}

func NewKey(collection string, parts ...string) Key {
	return Key{Collection: collection, Parts: parts}
}

// Part returns the i-th part or "" when out of range.
func (k Key) Part(i int) string {
	if i < 0 || i >= len(k.Parts) {
		return ""
	}
	return k.Parts[i]
}

func (k Key) String() string {
	return k.Collection + "/" + strings.Join(k.Parts, "/")
}

func (k Key) validate() error {
	if k.Collection == "" || strings.IndexByte(k.Collection, '/') >= 0 {
		return fmt.Errorf("invalid collection %q", k.Collection)
	}
	if len(k.Parts) == 0 {
		return fmt.Errorf("key %s has no parts", k.Collection)
	}
	return validateParts(k.Parts)
}

func validateParts(parts []string) error {
	for _, p := range parts {
		if strings.IndexByte(p, partTerminator) >= 0 {
			return fmt.Errorf("key part %q contains NUL", p)
		}
	}
	return nil
}

// encodeParts terminates every part with NUL. NUL sorts below every other
// byte, so byte order of the encoding equals tuple order of the parts and a
// prefix of parts encodes to a byte prefix.
func encodeParts(parts []string) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.WriteString(p)
		buf.WriteByte(partTerminator)
	}
	return buf.Bytes()
}

func decodeParts(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	raw = bytes.TrimSuffix(raw, []byte{partTerminator})
	chunks := bytes.Split(raw, []byte{partTerminator})
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = string(c)
	}
	return parts
}

// prefixUpperBound returns the smallest byte string greater than every
// string with the given prefix, or nil when there is none.
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
