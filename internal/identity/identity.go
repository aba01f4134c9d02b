// Package identity derives the content identifier (CID) and version
// identifier (VID) for extracted callables.
//
// CID is the immutable identity of a callable's documented contract:
// a digest over the normalized signature, the normalized docstring, and
// the kind. VID is the full content digest over signature, docstring,
// and body, recomputed on every observation so that body drift under a
// stable CID is observable as a CHANGED reconciliation.
//
// Both render as IPFS CIDv1 strings (raw codec, SHA-256 multihash,
// base32 multibase), a fixed-width stable text encoding.
package identity

import (
	"strings"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/hoard-dev/hoard/internal/pyextract"
)

// sep keeps digest inputs unambiguous under concatenation.
const sep = "\x1f"

// Derive computes (CID, VID) for a record. Pure function of the record's
// signature, docstring, body source, and kind: no clock, no locale, no
// iteration order.
func Derive(r pyextract.Record) (string, string, error) {
	sig := NormalizeSignature(r.Signature)
	doc := Normalize(r.Docstring)
	body := Normalize(r.BodySource)

	cid, err := digest(sig + sep + doc + sep + r.Kind.String())
	if err != nil {
		return "", "", err
	}
	vid, err := digest(sig + sep + doc + sep + body)
	if err != nil {
		return "", "", err
	}
	return cid, vid, nil
}

// Normalize makes source text platform-independent: line endings unified
// to LF, trailing whitespace stripped per line, and one layer of common
// leading indentation removed so identical logical code hashes identically
// regardless of where it sat in the file.
//
// Any change to this function changes every derived VID; the pinned
// vectors in identity_test.go exist to make such a change deliberate.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	margin := commonIndent(lines)
	if margin != "" {
		for i, ln := range lines {
			lines[i] = strings.TrimPrefix(ln, margin)
		}
	}
	return strings.Join(lines, "\n")
}

// NormalizeSignature collapses all whitespace runs to single spaces, so
// parameter lists split across lines compare equal to one-line forms.
func NormalizeSignature(sig string) string {
	return strings.Join(strings.Fields(sig), " ")
}

func commonIndent(lines []string) string {
	margin := ""
	found := false
	for _, ln := range lines {
		if ln == "" {
			continue
		}
		indent := ln[:len(ln)-len(strings.TrimLeft(ln, " \t"))]
		if !found {
			margin = indent
			found = true
			continue
		}
		for !strings.HasPrefix(ln, margin) {
			margin = margin[:len(margin)-1]
		}
		if margin == "" {
			break
		}
	}
	return margin
}

func digest(s string) (string, error) {
	mh, err := multihash.Sum([]byte(s), multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return gocid.NewCidV1(gocid.Raw, mh).String(), nil
}
