/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "bytes"

// StreamRegionClass classifies the content carried by a StreamRegion.
type StreamRegionClass int

const (
	// RegionBinary is opaque: no rewrite may touch it.
	RegionBinary StreamRegionClass = iota
	// RegionXML is a transparent XFA/XMP payload; its text is a rewrite target.
	RegionXML
	// RegionMetadata is a transparent textual metadata payload.
	RegionMetadata
)

// String implements fmt.Stringer.
func (c StreamRegionClass) String() string {
	switch c {
	case RegionXML:
		return "XML"
	case RegionMetadata:
		return "Metadata"
	default:
		return "Binary"
	}
}

// StreamRegion is a half-open byte range [Start, End) over the raw buffer,
// where Start is the first content byte after "stream\n" (or "stream\r\n")
// and End is the index of the matching "endstream".
type StreamRegion struct {
	Start, End int
	Class      StreamRegionClass
}

// lookbehind is the number of bytes inspected before "stream" and after
// its content's start, when classifying a region.
const lookbehind = 500

var (
	streamKW    = []byte("stream")
	endstreamKW = []byte("endstream")
)

// StreamRegionIndex holds every stream region found in a buffer, ordered by
// Start, and answers IsProtected queries against them.
type StreamRegionIndex struct {
	Regions []StreamRegion
}

// BuildStreamRegionIndex scans `data` once for every "stream ... endstream"
// region and classifies it. Unterminated streams (no matching "endstream")
// are ignored; the scan simply moves on to the next occurrence of "stream".
func BuildStreamRegionIndex(data []byte) *StreamRegionIndex {
	idx := &StreamRegionIndex{}

	pos := 0
	for pos < len(data) {
		rel := bytes.Index(data[pos:], streamKW)
		if rel < 0 {
			break
		}
		kwStart := pos + rel
		contentStart, ok := streamContentStart(data, kwStart+len(streamKW))
		if !ok {
			pos = kwStart + len(streamKW)
			continue
		}

		endRel := bytes.Index(data[contentStart:], endstreamKW)
		if endRel < 0 {
			// Unterminated stream: ignore and continue scanning past the keyword.
			pos = kwStart + len(streamKW)
			continue
		}
		contentEnd := contentStart + endRel

		region := StreamRegion{
			Start: contentStart,
			End:   contentEnd,
			Class: classifyRegion(data, kwStart, contentStart, contentEnd),
		}
		idx.Regions = append(idx.Regions, region)

		pos = contentEnd + len(endstreamKW)
	}

	return idx
}

// streamContentStart returns the offset of the first content byte following
// the "stream" keyword at `after`, requiring the keyword be immediately
// followed by "\r\n" or "\n" per the PDF spec. Returns false otherwise,
// meaning this occurrence of the literal "stream" is not a real region.
func streamContentStart(data []byte, after int) (int, bool) {
	if after+1 < len(data) && data[after] == '\r' && data[after+1] == '\n' {
		return after + 2, true
	}
	if after < len(data) && data[after] == '\n' {
		return after + 1, true
	}
	return after, false
}

// classifyRegion applies the classification rules from the stream scan:
// XML, then Metadata, then Binary by default.
func classifyRegion(data []byte, kwStart, contentStart, contentEnd int) StreamRegionClass {
	precedingStart := kwStart - lookbehind
	if precedingStart < 0 {
		precedingStart = 0
	}
	preceding := data[precedingStart:kwStart]

	contentProbeEnd := contentStart + lookbehind
	if contentProbeEnd > contentEnd {
		contentProbeEnd = contentEnd
	}
	content := bytes.TrimLeft(data[contentStart:contentProbeEnd], " \t\r\n")

	if bytes.Contains(preceding, []byte("/Subtype /XML")) ||
		bytes.Contains(preceding, []byte("/XFA")) ||
		bytes.Contains(preceding, []byte("/AcroForm")) ||
		bytes.HasPrefix(content, []byte("<?xml")) ||
		bytes.HasPrefix(content, []byte("<xdp:xdp")) ||
		bytes.HasPrefix(content, []byte("<template")) ||
		bytes.Contains(content, []byte("<x:xmpmeta")) ||
		bytes.Contains(content, []byte("<rdf:RDF")) {
		return RegionXML
	}

	if bytes.Contains(preceding, []byte("/Type /Metadata")) ||
		bytes.Contains(preceding, []byte("/Metadata")) {
		return RegionMetadata
	}

	return RegionBinary
}

// IsProtected reports whether `offset` lies inside some Binary region.
func (idx *StreamRegionIndex) IsProtected(offset int) bool {
	for _, r := range idx.Regions {
		if r.Class != RegionBinary {
			continue
		}
		if offset >= r.Start && offset < r.End {
			return true
		}
	}
	return false
}

// spanProtected reports whether any byte in [lo, hi) lies inside a Binary region.
func (idx *StreamRegionIndex) spanProtected(lo, hi int) bool {
	for _, r := range idx.Regions {
		if r.Class != RegionBinary {
			continue
		}
		if lo < r.End && hi > r.Start {
			return true
		}
	}
	return false
}

// xmlRegions returns the subset of regions classified as XML.
func (idx *StreamRegionIndex) xmlRegions() []StreamRegion {
	var out []StreamRegion
	for _, r := range idx.Regions {
		if r.Class == RegionXML {
			out = append(out, r)
		}
	}
	return out
}
