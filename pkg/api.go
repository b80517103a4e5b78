package pkg

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/ec3000/go/ec3000/pkg/whitelist"
)

// EnvWhitelist names a whitelist file used when no path is given explicitly.
const EnvWhitelist = "EC3000_WHITELIST"

// LoadWhitelist resolves the active whitelist: path if set, then
// $EC3000_WHITELIST, then the built-in EC3000 table. Load errors are
// returned, not logged; the caller reports them.
func LoadWhitelist(path string, strict bool, logger hclog.Logger) (*whitelist.Whitelist, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	source := "flag"
	if path == "" {
		path = os.Getenv(EnvWhitelist)
		source = "env"
	}

	if path == "" {
		wl := whitelist.Default()
		logger.Debug("📋 Using built-in whitelist", "size", wl.Size(), "fingerprint", wl.Fingerprint())
		return wl, nil
	}

	wl, err := whitelist.LoadFile(path, whitelist.LoadOptions{Strict: strict})
	if err != nil {
		return nil, err
	}
	if wl.Size() == 0 {
		logger.Warn("⚠️ Whitelist is empty, every device will be rejected", "path", path)
	}
	logger.Debug("📋 Loaded whitelist", "path", path, "source", source, "size", wl.Size(), "fingerprint", wl.Fingerprint())
	return wl, nil
}

// CheckResult is the verdict for one candidate ID.
type CheckResult struct {
	ID      string
	Allowed bool
	Label   string
}

// CheckIdentifiers looks up each candidate in wl.
func CheckIdentifiers(wl *whitelist.Whitelist, ids []string) []CheckResult {
	results := make([]CheckResult, len(ids))
	for i, id := range ids {
		label, ok := wl.Label(id)
		results[i] = CheckResult{ID: id, Allowed: ok, Label: label}
	}
	return results
}
