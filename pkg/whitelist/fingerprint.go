package whitelist

import (
	"sort"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Fingerprint returns a CIDv1 (raw codec, sha2-256) over the sorted
// identifiers joined by newlines. Labels, input order and duplicates do not
// affect it, so two whitelists admitting the same devices share a
// fingerprint.
func (wl *Whitelist) Fingerprint() string {
	ids := make([]string, 0, wl.Size())
	for _, e := range wl.Entries() {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)

	sum, err := multihash.Sum([]byte(strings.Join(ids, "\n")), multihash.SHA2_256, -1)
	if err != nil {
		// Unreachable for SHA2_256 with default length.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
