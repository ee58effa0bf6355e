/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

// SanitizeOptions configures which classes of active content are removed.
// All three recognized options default to true in user-facing flows.
type SanitizeOptions struct {
	// RemoveLinks strips external-link annotations, neutralizes
	// URI/Launch/GoToR/GoToE/SubmitForm/ImportData actions, rewrites
	// embedded URLs to "about:blank", and removes embedded UNC paths.
	RemoveLinks bool

	// RemoveForms strips the AcroForm dictionary, XFA references, widget
	// annotations, and XFA submit tags.
	RemoveForms bool

	// RemoveJavascript strips an OpenAction that invokes JavaScript,
	// deletes the Names/JavaScript name tree, empties /JS(...) literal
	// bodies, and neutralizes JavaScript actions.
	RemoveJavascript bool

	// Strict, when true, treats a Structural save error as Total Failure
	// instead of falling back to the Byte-Level path. Defaults to false.
	Strict bool
}

// DefaultSanitizeOptions returns the options used by user-facing flows:
// every recognized class of active content removed.
func DefaultSanitizeOptions() SanitizeOptions {
	return SanitizeOptions{
		RemoveLinks:      true,
		RemoveForms:      true,
		RemoveJavascript: true,
	}
}
