/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "regexp"

// Compiled once at package init, matching the teacher's module-level re*
// variable convention for low-level pattern scanning.
var (
	reOpenAction      = regexp.MustCompile(`(?s)/OpenAction\s*(<<.*?>>|\d+\s+\d+\s+R)`)
	reAdditionalActs  = regexp.MustCompile(`(?s)/AA\s*<<.*?>>`)
	reNamesJavaScript = regexp.MustCompile(`(?s)/Names\s*<<.*?/JavaScript\s*<<.*?>>\s*>>`)
	reXFAReference    = regexp.MustCompile(`/XFA\s+\d+\s+\d+\s+R`)
	reXFASubmitTag    = regexp.MustCompile(`(?s)</?(?:xdp:)?submit[^>]*>`)
	reXFASubmitAttr   = regexp.MustCompile(`(?:target|href)\s*=\s*"(https?://[^"]*)"`)
	reXMLStylesheet   = regexp.MustCompile(`(?s)<\?xml-stylesheet.*?\?>`)
	reJSLiteral       = regexp.MustCompile(`(?s)/JS\s*\(.*?\)`)
	reUNCURL          = regexp.MustCompile(`\\+https?://[^\s"'>]*`)
	reBareURL         = regexp.MustCompile(`https?://[^\s"'>]*`)
	reAcroForm        = regexp.MustCompile(`(?s)/AcroForm\s*<<.*?>>`)
)

// actionTypeRE builds the "/S /Type" matcher for a given action type name.
func actionTypeRE(actionType string) *regexp.Regexp {
	return regexp.MustCompile(`/S\s*/` + actionType + `\b`)
}

// dangerousActionTypes returns the active set of action type names to
// neutralize, per the sanitization options.
func dangerousActionTypes(opts SanitizeOptions) []string {
	if opts.RemoveLinks {
		return []string{"URI", "Launch", "GoToR", "GoToE", "SubmitForm", "ImportData", "JavaScript"}
	}
	if opts.RemoveJavascript {
		return []string{"JavaScript"}
	}
	return nil
}

// findSpans returns every non-overlapping-with-protected-regions match of
// `re` in `buf` as a list of spans.
func findSpans(re *regexp.Regexp, buf []byte, idx *StreamRegionIndex) []span {
	var spans []span
	for _, loc := range re.FindAllIndex(buf, -1) {
		if idx.spanProtected(loc[0], loc[1]) {
			continue
		}
		spans = append(spans, span{Lo: loc[0], Hi: loc[1]})
	}
	return spans
}
