package subscription

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"

	"github.com/lumenstore/lumen/query"
)

// DomainDescriptor is the domain prefix for descriptor fingerprints. The
// version suffix enables future encoding migration.
const DomainDescriptor = "lumen/descriptor/v1"

// Fingerprint computes a stable content-addressed identity for a query
// shape. Two structurally identical descriptors always produce the same
// fingerprint, across processes and restarts, so callers can use it as a
// cache or dedup key for subscriptions.
//
// Identifiers are NFC normalized before hashing so that visually identical
// column names with different Unicode encodings fingerprint the same way.
// Each section is length-delimited to keep field boundaries unambiguous.
func (d Descriptor) Fingerprint() string {
	var buf bytes.Buffer

	writeSection(&buf, d.Tables)
	writeSection(&buf, d.FieldNames)

	filterStrs := make([]string, len(d.Filters))
	for i, f := range d.Filters {
		filterStrs[i] = f.String()
	}
	writeSection(&buf, filterStrs)

	writeSection(&buf, d.OrderFieldNames)

	dirStrs := make([]string, len(d.OrderDirections))
	for i, dir := range d.OrderDirections {
		dirStrs[i] = dir.String()
	}
	writeSection(&buf, dirStrs)

	return hashWithDomain(DomainDescriptor, buf.Bytes())
}

// writeSection appends a length-prefixed list of NFC-normalized strings.
func writeSection(buf *bytes.Buffer, items []string) {
	writeUvarint(buf, uint64(len(items)))
	for _, item := range items {
		s := norm.NFC.String(item)
		writeUvarint(buf, uint64(len(s)))
		buf.WriteString(s)
	}
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

// hashWithDomain computes SHA-256 over domain || 0x00 || data. The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintForSelect is a convenience for fingerprinting a select
// statement without materializing its descriptor first.
func FingerprintForSelect(stmt *query.SelectStmt) string {
	return DescriptorForSelect(stmt).Fingerprint()
}
