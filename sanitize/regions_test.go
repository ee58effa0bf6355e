/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStreamRegionIndexClassifiesBinary(t *testing.T) {
	data := []byte("1 0 obj\n<< /Length 10 >>\nstream\n" + "\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09" + "\nendstream\nendobj\n")
	idx := BuildStreamRegionIndex(data)
	require.Len(t, idx.Regions, 1)
	require.Equal(t, RegionBinary, idx.Regions[0].Class)
}

func TestBuildStreamRegionIndexClassifiesXMLByPrefix(t *testing.T) {
	data := []byte("1 0 obj\n<< /Subtype /XML /Length 30 >>\nstream\n<?xml version=\"1.0\"?><a/>\nendstream\nendobj\n")
	idx := BuildStreamRegionIndex(data)
	require.Len(t, idx.Regions, 1)
	require.Equal(t, RegionXML, idx.Regions[0].Class)
}

func TestBuildStreamRegionIndexClassifiesXMLByXFAPrecedingTag(t *testing.T) {
	data := []byte("1 0 obj\n<< /XFA 2 0 R /Length 20 >>\nstream\nsome xfa payload\nendstream\nendobj\n")
	idx := BuildStreamRegionIndex(data)
	require.Len(t, idx.Regions, 1)
	require.Equal(t, RegionXML, idx.Regions[0].Class)
}

func TestBuildStreamRegionIndexClassifiesMetadata(t *testing.T) {
	data := []byte("1 0 obj\n<< /Type /Metadata /Length 11 >>\nstream\nhello world\nendstream\nendobj\n")
	idx := BuildStreamRegionIndex(data)
	require.Len(t, idx.Regions, 1)
	require.Equal(t, RegionMetadata, idx.Regions[0].Class)
}

func TestBuildStreamRegionIndexIgnoresUnterminatedStream(t *testing.T) {
	data := []byte("1 0 obj\n<< /Length 5 >>\nstream\nabcde")
	idx := BuildStreamRegionIndex(data)
	require.Empty(t, idx.Regions)
}

func TestIsProtectedOnlyTrueInsideBinaryRegion(t *testing.T) {
	data := []byte("before stream\n" + "\x00\x00\x00\x00" + "endstream after")
	idx := BuildStreamRegionIndex(data)
	require.Len(t, idx.Regions, 1)
	region := idx.Regions[0]

	require.True(t, idx.IsProtected(region.Start))
	require.True(t, idx.IsProtected(region.End-1))
	require.False(t, idx.IsProtected(region.Start-1))
	require.False(t, idx.IsProtected(region.End))
}

func TestStreamContentStartRequiresLineTerminator(t *testing.T) {
	crlf := []byte("stream\r\ndata")
	off, ok := streamContentStart(crlf, len("stream"))
	require.True(t, ok)
	require.Equal(t, len("stream\r\n"), off)

	lf := []byte("stream\ndata")
	off, ok = streamContentStart(lf, len("stream"))
	require.True(t, ok)
	require.Equal(t, len("stream\n"), off)

	none := []byte("streamdata")
	_, ok = streamContentStart(none, len("stream"))
	require.False(t, ok)
}
