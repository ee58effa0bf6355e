/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"bytes"
	"strings"

	"github.com/benedoc-inc/pdfsanitize/common"
	"github.com/benedoc-inc/pdfsanitize/core"
	"github.com/benedoc-inc/pdfsanitize/model"
	"golang.org/x/xerrors"
)

// structuralSanitize runs the object-model pass: it parses the document,
// mutates the catalog and page annotation arrays in place, and saves an
// incremental update through model.PdfAppender. It returns ErrParserFailure
// if the document cannot be parsed and ErrSaveFailure if the save fails
// after mutation; both leave the caller free to fall back to the byte-level
// path against the original bytes.
func structuralSanitize(data []byte, opts SanitizeOptions) ([]byte, SanitizeReport, error) {
	var report SanitizeReport

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, report, xerrors.Errorf("%w: %v", ErrParserFailure, err)
	}

	appender, err := model.NewPdfAppender(reader)
	if err != nil {
		return nil, report, xerrors.Errorf("%w: %v", ErrParserFailure, err)
	}

	sanitizeCatalog(reader, appender, opts, &report)

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, report, xerrors.Errorf("%w: %v", ErrParserFailure, err)
	}

	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			// Tolerant failure: a single unreadable page must not abort the document.
			common.Log.Debug("sanitize: skipping page %d: %v", i, err)
			continue
		}
		sanitizePage(page, appender, opts, &report)
	}

	var buf bytes.Buffer
	if err := appender.Write(&buf); err != nil {
		return nil, report, xerrors.Errorf("%w: %v", ErrSaveFailure, err)
	}

	return buf.Bytes(), report, nil
}

// sanitizeCatalog applies the catalog-level operations from the rule set:
// OpenAction removal, unconditional AA removal, Names/JavaScript pruning,
// and AcroForm removal.
func sanitizeCatalog(reader *model.PdfReader, appender *model.PdfAppender, opts SanitizeOptions, report *SanitizeReport) {
	catalog := reader.GetCatalog()
	if catalog == nil {
		return
	}

	if openAction := catalog.Get("OpenAction"); openAction != nil && shouldRemoveOpenAction(reader, openAction, opts) {
		appender.ReplaceCatalogKey("OpenAction", nil)
		report.add("Removed OpenAction")
	}

	if catalog.Get("AA") != nil {
		appender.ReplaceCatalogKey("AA", nil)
		report.add("Removed Additional Actions dictionary")
	}

	if opts.RemoveJavascript && removeNamesJavaScript(catalog, appender) {
		report.add("Removed Names/JavaScript entry")
	}

	if opts.RemoveForms && catalog.Get("AcroForm") != nil {
		appender.ReplaceAcroForm(nil)
		appender.ReplaceCatalogKey("AcroForm", nil)
		report.add("Removed AcroForm")
	}
}

// shouldRemoveOpenAction classifies a catalog /OpenAction value. A reference
// or already-resolved indirect object is removed conservatively whenever
// either option that can apply to an action is active, rather than forcing
// a full graph traversal just to classify it. A direct action dictionary
// (the common case) is resolved into the typed action model and classified
// by its /S subtype.
func shouldRemoveOpenAction(reader *model.PdfReader, obj core.PdfObject, opts SanitizeOptions) bool {
	if _, isRef := obj.(*core.PdfObjectReference); isRef {
		return opts.RemoveLinks || opts.RemoveJavascript
	}
	if _, isIndirect := obj.(*core.PdfIndirectObject); isIndirect {
		return opts.RemoveLinks || opts.RemoveJavascript
	}

	action, err := reader.LoadAction(obj)
	if err != nil || action == nil {
		return false
	}
	name, ok := core.GetName(action.S)
	if !ok {
		return false
	}
	switch name.String() {
	case "JavaScript":
		return opts.RemoveJavascript
	case "URI", "Launch", "GoToR", "GoToE", "SubmitForm", "ImportData":
		return opts.RemoveLinks
	}
	return false
}

// removeNamesJavaScript drops the JavaScript sub-entry from the catalog's
// Names dictionary, replacing Names with a clone that omits it. Reports
// false if there was nothing to remove.
func removeNamesJavaScript(catalog *core.PdfObjectDictionary, appender *model.PdfAppender) bool {
	namesObj := catalog.Get("Names")
	if namesObj == nil {
		return false
	}
	namesDict, ok := core.GetDict(namesObj)
	if !ok {
		return false
	}
	if namesDict.Get("JavaScript") == nil {
		return false
	}

	clone := core.MakeDict()
	for _, key := range namesDict.Keys() {
		if key == "JavaScript" {
			continue
		}
		clone.Set(key, namesDict.Get(key))
	}
	appender.ReplaceCatalogKey("Names", clone)
	return true
}

// sanitizePage removes the page's Additional Actions dictionary and
// rebuilds its annotation array, dropping Link annotations that carry a
// dangerous action and Widget annotations when forms are in scope. Kept
// annotations retain their original indirect references untouched.
func sanitizePage(page *model.PdfPage, appender *model.PdfAppender, opts SanitizeOptions, report *SanitizeReport) {
	changed := false

	if page.AA != nil {
		page.AA = nil
		changed = true
		report.add("Removed page Additional Actions dictionary")
	}

	annots, err := page.GetAnnotations()
	if err != nil {
		// Tolerant failure: an unreadable Annots array must not abort the page.
		common.Log.Debug("sanitize: skipping annotations: %v", err)
		annots = nil
	}

	if len(annots) > 0 {
		kept := make([]*model.PdfAnnotation, 0, len(annots))
		removedLinks, removedWidgets := 0, 0
		for _, annot := range annots {
			drop, isWidget := shouldDropAnnotation(annot, opts)
			if !drop {
				kept = append(kept, annot)
				continue
			}
			if isWidget {
				removedWidgets++
			} else {
				removedLinks++
			}
		}
		if removedLinks > 0 || removedWidgets > 0 {
			page.SetAnnotations(kept)
			changed = true
		}
		reportN(report, removedLinks, "external link annotation", "external link annotations")
		reportN(report, removedWidgets, "form widget annotation", "form widget annotations")
	}

	if changed {
		appender.UpdatePage(page)
	}
}

// shouldDropAnnotation reports whether `annot` should be dropped from its
// page's annotation array, and whether it is a Widget (for report wording).
func shouldDropAnnotation(annot *model.PdfAnnotation, opts SanitizeOptions) (drop, isWidget bool) {
	switch ctx := annot.GetContext().(type) {
	case *model.PdfAnnotationWidget:
		return opts.RemoveForms, true
	case *model.PdfAnnotationLink:
		if !opts.RemoveLinks {
			return false, false
		}
		action, err := ctx.GetAction()
		if err != nil {
			// Unresolvable action: drop conservatively rather than keep a
			// link whose destination could not be classified.
			common.Log.Debug("sanitize: could not resolve link action, dropping conservatively: %v", err)
			return true, false
		}
		return shouldDropLinkAction(action), false
	}
	return false, false
}

// shouldDropLinkAction inspects a Link annotation's resolved action model.
// URI, Launch, GoToR, GoToE, SubmitForm, and ImportData actions are always
// dropped; a GoTo action is dropped only when its destination stringifies
// to an external URL, which would otherwise masquerade as an internal jump.
func shouldDropLinkAction(action *model.PdfAction) bool {
	if action == nil {
		return false
	}
	name, ok := core.GetName(action.S)
	if !ok {
		return false
	}
	switch name.String() {
	case "URI", "Launch", "GoToR", "GoToE", "SubmitForm", "ImportData":
		return true
	case "GoTo":
		goTo, ok := action.GetContext().(*model.PdfActionGoTo)
		if !ok || goTo.D == nil {
			return false
		}
		direct := core.TraceToDirectObject(goTo.D)
		if direct == nil {
			return false
		}
		s := direct.WriteString()
		return strings.Contains(s, "http://") || strings.Contains(s, "https://") || strings.Contains(s, "ftp://")
	}
	return false
}
