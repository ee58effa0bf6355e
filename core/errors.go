/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package core

import "errors"

// ErrTypeError is returned when a PdfObject does not have the expected underlying type.
var ErrTypeError = errors.New("type check error")

// ErrNotANumber is returned when a numeric accessor is used on a non-numeric PdfObject.
var ErrNotANumber = errors.New("not a number")

// ErrRangeError is returned when an index or count falls outside a valid range.
var ErrRangeError = errors.New("range check error")
