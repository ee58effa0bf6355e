/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"testing"

	"github.com/benedoc-inc/pdfsanitize/core"
	"github.com/benedoc-inc/pdfsanitize/model"
	"github.com/stretchr/testify/require"
)

func actionOfType(actionType model.PdfActionType) *model.PdfAction {
	action := model.NewPdfAction()
	action.S = core.MakeName(string(actionType))
	return action
}

func goToAction(dest core.PdfObject) *model.PdfAction {
	goTo := model.NewPdfActionGoTo()
	goTo.S = core.MakeName("GoTo")
	goTo.D = dest
	return goTo.PdfAction
}

func linkAnnotationWithAction(action *model.PdfAction) *model.PdfAnnotation {
	link := model.NewPdfAnnotationLink()
	link.SetAction(action)
	return link.PdfAnnotation
}

func TestShouldDropLinkActionDropsDangerousSubtypes(t *testing.T) {
	dangerous := []model.PdfActionType{
		model.ActionTypeURI,
		model.ActionTypeLaunch,
		model.ActionTypeGoToR,
		model.ActionTypeGoToE,
		model.ActionTypeSubmitForm,
		model.ActionTypeImportData,
	}
	for _, actionType := range dangerous {
		require.True(t, shouldDropLinkAction(actionOfType(actionType)), "expected %s to be dropped", actionType)
	}
}

func TestShouldDropLinkActionPreservesInternalGoTo(t *testing.T) {
	action := goToAction(core.MakeName("Chapter1"))

	require.False(t, shouldDropLinkAction(action))
}

func TestShouldDropLinkActionDropsExternalGoTo(t *testing.T) {
	action := goToAction(core.MakeString("http://evil.example/payload"))

	require.True(t, shouldDropLinkAction(action))
}

func TestShouldDropLinkActionIgnoresNilAction(t *testing.T) {
	require.False(t, shouldDropLinkAction(nil))
}

func TestShouldDropLinkActionIgnoresUnknownSubtype(t *testing.T) {
	require.False(t, shouldDropLinkAction(actionOfType("Hide")))
}

func TestShouldDropAnnotationDropsLinkWithDangerousAction(t *testing.T) {
	annot := linkAnnotationWithAction(actionOfType(model.ActionTypeURI))
	opts := DefaultSanitizeOptions()

	drop, isWidget := shouldDropAnnotation(annot, opts)

	require.True(t, drop)
	require.False(t, isWidget)
}

func TestShouldDropAnnotationKeepsLinkWithInternalGoTo(t *testing.T) {
	annot := linkAnnotationWithAction(goToAction(core.MakeName("Chapter1")))
	opts := DefaultSanitizeOptions()

	drop, isWidget := shouldDropAnnotation(annot, opts)

	require.False(t, drop)
	require.False(t, isWidget)
}

func TestShouldDropAnnotationKeepsLinkWhenRemoveLinksDisabled(t *testing.T) {
	annot := linkAnnotationWithAction(actionOfType(model.ActionTypeURI))
	opts := DefaultSanitizeOptions()
	opts.RemoveLinks = false

	drop, _ := shouldDropAnnotation(annot, opts)

	require.False(t, drop)
}

func TestShouldDropAnnotationRemovesWidgetOnlyWhenRemoveFormsSet(t *testing.T) {
	widget := model.NewPdfAnnotationWidget()
	annot := widget.PdfAnnotation

	opts := DefaultSanitizeOptions()
	opts.RemoveForms = false
	drop, isWidget := shouldDropAnnotation(annot, opts)
	require.False(t, drop)
	require.True(t, isWidget)

	opts.RemoveForms = true
	drop, isWidget = shouldDropAnnotation(annot, opts)
	require.True(t, drop)
	require.True(t, isWidget)
}

func TestShouldDropAnnotationIgnoresUnrelatedContext(t *testing.T) {
	text := model.NewPdfAnnotationText()
	opts := DefaultSanitizeOptions()

	drop, isWidget := shouldDropAnnotation(text.PdfAnnotation, opts)

	require.False(t, drop)
	require.False(t, isWidget)
}

func TestShouldRemoveOpenActionClassifiesResolvedDictionary(t *testing.T) {
	reader := model.NewReaderForText("")

	dict := core.MakeDict()
	dict.Set("S", core.MakeName("JavaScript"))

	opts := DefaultSanitizeOptions()
	require.True(t, shouldRemoveOpenAction(reader, dict, opts))

	opts.RemoveJavascript = false
	require.False(t, shouldRemoveOpenAction(reader, dict, opts))
}

func TestShouldRemoveOpenActionClassifiesLinkStyleSubtypes(t *testing.T) {
	reader := model.NewReaderForText("")

	dict := core.MakeDict()
	dict.Set("S", core.MakeName("SubmitForm"))

	opts := DefaultSanitizeOptions()
	opts.RemoveJavascript = false
	require.True(t, shouldRemoveOpenAction(reader, dict, opts))

	opts.RemoveLinks = false
	require.False(t, shouldRemoveOpenAction(reader, dict, opts))
}

func TestShouldRemoveOpenActionConservativelyDropsReference(t *testing.T) {
	reader := model.NewReaderForText("")
	ref := &core.PdfObjectReference{ObjectNumber: 7}

	opts := SanitizeOptions{RemoveLinks: false, RemoveForms: false, RemoveJavascript: false}
	require.False(t, shouldRemoveOpenAction(reader, ref, opts))

	opts.RemoveJavascript = true
	require.True(t, shouldRemoveOpenAction(reader, ref, opts))

	opts.RemoveJavascript = false
	opts.RemoveLinks = true
	require.True(t, shouldRemoveOpenAction(reader, ref, opts))
}

func TestShouldRemoveOpenActionConservativelyDropsIndirectObject(t *testing.T) {
	reader := model.NewReaderForText("")
	ind := core.MakeIndirectObject(core.MakeDict())

	opts := SanitizeOptions{RemoveLinks: true}
	require.True(t, shouldRemoveOpenAction(reader, ind, opts))
}

func TestShouldRemoveOpenActionIgnoresUnclassifiableDictionary(t *testing.T) {
	reader := model.NewReaderForText("")
	dict := core.MakeDict()

	opts := DefaultSanitizeOptions()
	require.False(t, shouldRemoveOpenAction(reader, dict, opts))
}
