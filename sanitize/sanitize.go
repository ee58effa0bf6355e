/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"errors"
	"fmt"

	"github.com/benedoc-inc/pdfsanitize/common"
)

// Sanitize is the core entry point. It tries the Structural Sanitizer first;
// on success, it runs the byte-level URL sweep (rules 10-11) against the
// saved bytes, since URLs inside content streams and XFA XML bodies are
// opaque to the object model. On structural failure it falls back to the
// full Byte-Level Sanitizer against the original bytes and records why.
//
// The returned error is reserved for Total Failure: it is non-nil only
// together with report.Warning being set, and bytes is always valid
// (original or best-effort) even then. Sanitize never panics outward — an
// unexpected panic in either strategy is recovered and reported as a
// Total Failure.
//
// When opts.Strict is set, a Structural save failure is itself treated as
// Total Failure instead of triggering the Byte-Level fallback; a Structural
// parser failure still falls back regardless of Strict, since the document
// was never successfully loaded in the first place.
func Sanitize(data []byte, opts SanitizeOptions) (out []byte, report SanitizeReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = append([]byte(nil), data...)
			msg := fmt.Sprintf("Could not clean PDF: %v", r)
			report = SanitizeReport{Warning: msg}
			err = errors.New(msg)
		}
	}()

	structBytes, structReport, structErr := structuralSanitize(data, opts)
	if structErr == nil {
		sweptBytes, sweepReport := ByteLevelURLSweep(structBytes, opts)
		structReport.merge(sweepReport)
		return sweptBytes, structReport, nil
	}

	if isStrictSaveFailure(opts, structErr) {
		msg := fmt.Sprintf("structural save failed under strict mode: %v", structErr)
		return append([]byte(nil), data...), SanitizeReport{Warning: msg}, errors.New(msg)
	}

	common.Log.Debug("sanitize: structural pass failed, falling back to byte-level: %v", structErr)

	byteBytes, byteReport := ByteLevelSanitize(data, opts)
	byteReport.Warning = fmt.Sprintf("structural pass failed (%v); used byte-level fallback", structErr)
	return byteBytes, byteReport, nil
}

// isStrictSaveFailure reports whether a structural-pass error should be
// escalated to Total Failure under opts.Strict rather than triggering the
// Byte-Level fallback. Only a save failure escalates; a parser failure
// always falls back, Strict or not, since there is no structural result to
// prefer over the fallback when the document was never loaded in the first
// place.
func isStrictSaveFailure(opts SanitizeOptions, err error) bool {
	return opts.Strict && errors.Is(err, ErrSaveFailure)
}
