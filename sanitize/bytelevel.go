/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "bytes"

// ByteLevelSanitize applies the rule catalog against a raw byte buffer and
// returns an equal-length sanitized copy together with the removal report.
// It is used both as the primary path when the structural parser fails and
// as a final URL sweep (rules 10-11 only, via ByteLevelURLSweep) after a
// successful structural save.
func ByteLevelSanitize(data []byte, opts SanitizeOptions) ([]byte, SanitizeReport) {
	buf := append([]byte(nil), data...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleOpenAction(buf, idx, &report)

	if opts.RemoveJavascript || opts.RemoveLinks {
		ruleAdditionalActions(buf, idx, &report)
	}

	if opts.RemoveJavascript {
		ruleNamesJavaScript(buf, idx, &report)
	}

	if opts.RemoveForms {
		ruleXFAReference(buf, idx, &report)
		ruleXFASubmitURLs(buf, idx, &report)
		ruleXFASubmitTags(buf, idx, &report)
		ruleXMLStylesheet(buf, idx, &report)
	}

	ruleActionNeutralization(buf, idx, opts, &report)

	if opts.RemoveJavascript {
		ruleJSLiteral(buf, idx, &report)
	}

	if opts.RemoveLinks {
		ruleUNCURL(buf, idx, &report)
		ruleBareURL(buf, idx, &report)
	}

	if opts.RemoveForms {
		ruleAcroForm(buf, idx, &report)
	}

	return buf, report
}

// ByteLevelURLSweep runs only the bare/UNC URL rules (10-11), re-scanning
// the regions of the buffer given. It is the final sweep the orchestrator
// runs after a successful structural save, since URLs embedded inside
// content streams and XML payloads are opaque to the object model.
func ByteLevelURLSweep(data []byte, opts SanitizeOptions) ([]byte, SanitizeReport) {
	buf := append([]byte(nil), data...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	if opts.RemoveLinks {
		ruleUNCURL(buf, idx, &report)
		ruleBareURL(buf, idx, &report)
	}

	return buf, report
}

// Rule 1: OpenAction removal (always).
func ruleOpenAction(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reOpenAction, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	if len(spans) > 0 {
		report.add("Removed OpenAction")
	}
}

// Rule 2: Additional Actions (if removeJavascript or removeLinks).
func ruleAdditionalActions(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reAdditionalActs, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	reportN(report, len(spans), "Additional Actions dictionary", "Additional Actions dictionaries")
}

// Rule 3: Names/JavaScript (if removeJavascript).
func ruleNamesJavaScript(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reNamesJavaScript, buf, idx)
	for _, s := range spans {
		_ = substitute(buf, s, []byte("/Names<<>>"))
	}
	if len(spans) > 0 {
		report.add("Removed Names/JavaScript entry")
	}
}

// Rule 4: XFA form reference (if removeForms).
func ruleXFAReference(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reXFAReference, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	if len(spans) > 0 {
		report.add("Removed XFA form reference")
	}
}

// Rule 5: XFA submit URLs (if removeForms). Scans only inside XML regions,
// locating <submit>/<xdp:submit> tags carrying target= or href= attributes
// whose value contains "http", and pads just the URL portion.
func ruleXFASubmitURLs(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	count := 0
	for _, region := range idx.xmlRegions() {
		content := buf[region.Start:region.End]
		for _, tagLoc := range reXFASubmitTag.FindAllIndex(content, -1) {
			tag := content[tagLoc[0]:tagLoc[1]]
			attrLoc := reXFASubmitAttr.FindSubmatchIndex(tag)
			if attrLoc == nil {
				continue
			}
			urlLo := region.Start + tagLoc[0] + attrLoc[2]
			urlHi := region.Start + tagLoc[0] + attrLoc[3]
			if idx.spanProtected(urlLo, urlHi) {
				continue
			}
			if err := padURL(buf, span{Lo: urlLo, Hi: urlHi}, aboutBlank); err == nil {
				count++
			}
		}
	}
	reportVerbN(report, "Neutralized", count, "XFA submit URL", "XFA submit URLs")
}

// Rule 6: XFA submit tags (if removeForms).
func ruleXFASubmitTags(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reXFASubmitTag, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	reportN(report, len(spans), "XFA submit tag", "XFA submit tags")
}

// Rule 7: XML stylesheet (if removeForms).
func ruleXMLStylesheet(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reXMLStylesheet, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	if len(spans) > 0 {
		report.add("Removed XML stylesheet reference")
	}
}

// Rule 8: Action neutralization. For each dangerous action type in the
// active set, substitutes "/S /Type" with "/S /Next" padded.
func ruleActionNeutralization(buf []byte, idx *StreamRegionIndex, opts SanitizeOptions, report *SanitizeReport) {
	count := 0
	for _, actionType := range dangerousActionTypes(opts) {
		re := actionTypeRE(actionType)
		for _, s := range findSpans(re, buf, idx) {
			if substituteKeyword(buf, s, "/S /Next") == nil {
				count++
			}
		}
	}
	reportVerbN(report, "Neutralized", count, "action", "actions")
}

// Rule 9: JavaScript literal (if removeJavascript).
func ruleJSLiteral(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reJSLiteral, buf, idx)
	for _, s := range spans {
		_ = substitute(buf, s, []byte("/JS()"))
	}
	reportVerbN(report, "Emptied", len(spans), "JavaScript literal", "JavaScript literals")
}

// Rule 10: UNC URL removal (if removeLinks).
func ruleUNCURL(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reUNCURL, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	reportN(report, len(spans), "UNC-embedded URL", "UNC-embedded URLs")
}

// Rule 11: Bare URL rewrite (if removeLinks). Skips a match whose preceding
// 30 bytes contain an XML namespace declaration.
func ruleBareURL(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	count := 0
	for _, s := range findSpans(reBareURL, buf, idx) {
		lookback := s.Lo - 30
		if lookback < 0 {
			lookback = 0
		}
		preceding := buf[lookback:s.Lo]
		if bytes.Contains(preceding, []byte("xmlns=")) || bytes.Contains(preceding, []byte("xmlns:")) {
			continue
		}
		if padURL(buf, s, aboutBlank) == nil {
			count++
		}
	}
	reportN(report, count, "external URL", "external URLs")
}

// Rule 12: AcroForm removal (if removeForms).
func ruleAcroForm(buf []byte, idx *StreamRegionIndex, report *SanitizeReport) {
	spans := findSpans(reAcroForm, buf, idx)
	for _, s := range spans {
		blank(buf, s)
	}
	if len(spans) > 0 {
		report.add("Removed AcroForm")
	}
}

// reportN appends a singular- or plural-form descriptor depending on count,
// prefixed "Removed ".
func reportN(report *SanitizeReport, n int, singular, plural string) {
	reportVerbN(report, "Removed", n, singular, plural)
}

// reportVerbN is reportN with an explicit verb ("Removed", "Neutralized",
// "Emptied", ...), matching the descriptor forms used throughout spec.md §6.
func reportVerbN(report *SanitizeReport, verb string, n int, singular, plural string) {
	switch {
	case n == 1:
		report.add("%s %s", verb, singular)
	case n > 1:
		report.add("%s %d %s", verb, n, plural)
	}
}
