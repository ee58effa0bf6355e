/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

// Package sanitize neutralizes active content in PDF documents: external
// hyperlinks, form widgets (including XFA), embedded JavaScript, and
// automatic actions. It combines a structural pass over the parsed object
// graph with a byte-level, length-preserving fallback pass that also runs
// as a final URL sweep after a successful structural save.
package sanitize
