package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kosarica/pricelist-import/internal/types"
)

// FingerprintVersion is bumped whenever the canonical form below changes
const FingerprintVersion = 1

// nullSentinel keeps a missing gross price distinct from a zero one
const nullSentinel = "N"

// Fingerprint returns a deterministic hash of the accepted prices of a run.
// It is independent of row order and line numbers, so re-importing an
// unchanged price list yields the same value and callers can skip applying it.
func Fingerprint(items []types.ParsedPriceListItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		gross := nullSentinel
		if item.GrossPrice != nil {
			gross = strconv.FormatInt(*item.GrossPrice, 10)
		}
		lines[i] = fmt.Sprintf("%s:%s:%d:%d",
			strings.ToLower(item.ProductVariantID), gross, item.NetPrice, item.Quantity)
	}
	slices.Sort(lines)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "v%d\n", FingerprintVersion)
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
