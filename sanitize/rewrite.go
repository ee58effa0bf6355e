/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "fmt"

// span is a half-open byte range [Lo, Hi) into a buffer, already validated
// against a StreamRegionIndex.
type span struct {
	Lo, Hi int
}

func (s span) len() int { return s.Hi - s.Lo }

// blank sets every byte in the span to ASCII space.
func blank(buf []byte, s span) {
	for i := s.Lo; i < s.Hi; i++ {
		buf[i] = ' '
	}
}

// substitute copies `replacement` into the span, padding the tail with
// spaces if shorter. A replacement longer than the span is rejected: the
// caller must shorten it first.
func substitute(buf []byte, s span, replacement []byte) error {
	if len(replacement) > s.len() {
		return fmt.Errorf("sanitize: replacement of %d bytes does not fit span of %d bytes", len(replacement), s.len())
	}
	n := copy(buf[s.Lo:s.Hi], replacement)
	for i := s.Lo + n; i < s.Hi; i++ {
		buf[i] = ' '
	}
	return nil
}

// padURL writes `sentinel` into the span followed by spaces up to the
// span's length. It is a named specialization of substitute for URL spans.
func padURL(buf []byte, s span, sentinel string) error {
	return substitute(buf, s, []byte(sentinel))
}

// substituteKeyword writes `newKeyword` into the span (which bounds the old
// keyword's occurrence), padding with spaces. It exists so the
// action-neutralization rule reads as a named operation in the code rather
// than an anonymous substitute call; the report entry is the same either way.
func substituteKeyword(buf []byte, s span, newKeyword string) error {
	return substitute(buf, s, []byte(newKeyword))
}

const aboutBlank = "about:blank"
