/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import "fmt"

// SanitizeReport is an ordered sequence of human-readable removal
// descriptors plus an optional warning. Order reflects the order of
// application. An empty Items slice means the document was clean.
type SanitizeReport struct {
	Items   []string
	Warning string
}

// add appends a singleton descriptor, e.g. "Removed OpenAction".
func (r *SanitizeReport) add(format string, args ...interface{}) {
	r.Items = append(r.Items, fmt.Sprintf(format, args...))
}

// merge appends another report's items after this report's, and adopts the
// other report's warning if this report does not already carry one.
func (r *SanitizeReport) merge(other SanitizeReport) {
	r.Items = append(r.Items, other.Items...)
	if r.Warning == "" {
		r.Warning = other.Warning
	}
}
