/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlankSetsEverySpanByteToSpace(t *testing.T) {
	buf := []byte("abcdefgh")
	blank(buf, span{Lo: 2, Hi: 5})
	require.Equal(t, []byte("ab   fgh"), buf)
}

func TestSubstitutePadsShorterReplacement(t *testing.T) {
	buf := []byte("0123456789")
	err := substitute(buf, span{Lo: 2, Hi: 8}, []byte("hi"))
	require.NoError(t, err)
	require.Equal(t, []byte("01hi    89"), buf)
	require.Len(t, buf, 10)
}

func TestSubstituteRejectsOverlongReplacement(t *testing.T) {
	buf := []byte("0123456789")
	err := substitute(buf, span{Lo: 2, Hi: 4}, []byte("too long"))
	require.Error(t, err)
	require.Equal(t, []byte("0123456789"), buf)
}

func TestPadURLWritesSentinelPadded(t *testing.T) {
	buf := []byte("http://evil.example/exfil      ")
	err := padURL(buf, span{Lo: 0, Hi: len(buf)}, aboutBlank)
	require.NoError(t, err)
	require.Len(t, buf, 31)
	require.Equal(t, "about:blank", string(buf[:len(aboutBlank)]))
	for _, b := range buf[len(aboutBlank):] {
		require.Equal(t, byte(' '), b)
	}
}

func TestSubstituteKeywordPreservesLength(t *testing.T) {
	buf := []byte("/S /URI  ")
	err := substituteKeyword(buf, span{Lo: 0, Hi: len(buf)}, "/S /Next")
	require.NoError(t, err)
	require.Equal(t, "/S /Next ", string(buf))
}
