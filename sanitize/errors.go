/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "golang.org/x/xerrors"

// ErrParserFailure indicates the structural parser could not load the
// document. The orchestrator recovers by falling back to the byte-level
// sanitizer and surfaces the cause as a report warning.
var ErrParserFailure = xerrors.New("sanitize: structural parser failure")

// ErrSaveFailure indicates the structural save step failed after partial
// mutation. Unless opts.Strict is set it is treated like ErrParserFailure:
// the orchestrator discards the structural output and runs the byte-level
// sanitizer against the original bytes. Under opts.Strict it is a Total
// Failure: Sanitize returns the original bytes, a warning and an error.
var ErrSaveFailure = xerrors.New("sanitize: structural save failure")
