/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package core

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/benedoc-inc/pdfsanitize/common"
)

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// StringToUTF16 encodes a Go string as UTF-16BE bytes (without the leading
// byte-order mark), returned as a Go string for direct inclusion in a
// PdfObjectString's backing buffer.
func StringToUTF16(s string) string {
	enc := utf16BE.NewEncoder()
	out, err := enc.String(s)
	if err != nil {
		common.Log.Debug("ERROR: UTF-16 encode failed: %v", err)
		return s
	}
	return out
}

// UTF16ToString decodes UTF-16BE bytes (without a byte-order mark) into a Go string.
func UTF16ToString(b []byte) string {
	dec := utf16BE.NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		common.Log.Debug("ERROR: UTF-16 decode failed: %v", err)
		return string(b)
	}
	return string(out)
}

// pdfDocEncodingToUnicode maps the PDFDocEncoding code points above 0x7F (which
// diverge from Latin-1) to their Unicode runes, per the PDF32000 Annex D table.
var pdfDocEncodingToUnicode = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: '€',
}

// StringToPDFDocEncoding encodes a Go string using PDFDocEncoding where possible,
// falling back to Latin-1 byte truncation for runes outside the PDFDocEncoding set.
func StringToPDFDocEncoding(s string) []byte {
	reverse := make(map[rune]byte, len(pdfDocEncodingToUnicode))
	for b, r := range pdfDocEncodingToUnicode {
		reverse[r] = b
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x18 || (r >= 0x20 && r < 0x80) {
			out = append(out, byte(r))
			continue
		}
		if b, ok := reverse[r]; ok {
			out = append(out, b)
			continue
		}
		if r < 0x100 {
			out = append(out, byte(r))
			continue
		}
		out = append(out, '?')
	}
	return out
}

// PDFDocEncodingToString decodes PDFDocEncoding bytes into a Go string.
func PDFDocEncodingToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		if r, ok := pdfDocEncodingToUnicode[c]; ok {
			runes[i] = r
			continue
		}
		runes[i] = rune(c)
	}
	return string(runes)
}
