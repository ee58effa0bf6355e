/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestSanitizeFallsBackToByteLevelOnUnparsablePDF(t *testing.T) {
	data := []byte("not a pdf at all /OpenAction << /S /URI /URI (http://evil.example) >>")

	out, report, err := Sanitize(data, DefaultSanitizeOptions())

	require.NoError(t, err)
	require.Len(t, out, len(data))
	require.NotContains(t, string(out), "/OpenAction")
	require.NotEmpty(t, report.Warning)
	require.True(t, strings.Contains(report.Warning, "byte-level fallback"))
	require.Contains(t, report.Items, "Removed OpenAction")
}

func TestSanitizeNeverPanicsOutward(t *testing.T) {
	require.NotPanics(t, func() {
		_, _, _ = Sanitize(nil, DefaultSanitizeOptions())
	})
}

func TestSanitizeOnEmptyInputReportsNoFindings(t *testing.T) {
	out, report, err := Sanitize([]byte{}, DefaultSanitizeOptions())

	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, report.Items)
	require.NotEmpty(t, report.Warning)
}

func TestDefaultSanitizeOptionsEnablesEveryCategory(t *testing.T) {
	opts := DefaultSanitizeOptions()

	require.True(t, opts.RemoveLinks)
	require.True(t, opts.RemoveForms)
	require.True(t, opts.RemoveJavascript)
}

func TestStrictModeStillFallsBackOnParserFailure(t *testing.T) {
	data := []byte("not a pdf at all /OpenAction << /S /URI /URI (http://evil.example) >>")
	opts := DefaultSanitizeOptions()
	opts.Strict = true

	out, report, err := Sanitize(data, opts)

	require.NoError(t, err)
	require.Len(t, out, len(data))
	require.True(t, strings.Contains(report.Warning, "byte-level fallback"))
}

func TestIsStrictSaveFailure(t *testing.T) {
	lenient := SanitizeOptions{Strict: false}
	strict := SanitizeOptions{Strict: true}

	require.False(t, isStrictSaveFailure(lenient, ErrSaveFailure))
	require.False(t, isStrictSaveFailure(strict, ErrParserFailure))
	require.False(t, isStrictSaveFailure(strict, nil))
	require.True(t, isStrictSaveFailure(strict, ErrSaveFailure))
	require.True(t, isStrictSaveFailure(strict, xerrors.Errorf("%w: %v", ErrSaveFailure, "write failed")))
}
