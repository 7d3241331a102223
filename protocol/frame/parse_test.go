package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageStart(t *testing.T) {
	buf := MessageStart{}.AppendTo(nil)

	rest, out := ParseMessageStart(buf)
	require.Equal(t, Complete, out)
	assert.Empty(t, rest)

	_, out = ParseMessageStart(nil)
	assert.Equal(t, Incomplete, out)

	_, out = ParseMessageStart([]byte{PrefixString})
	assert.Equal(t, Invalid, out)
}

func TestParseFrameLength(t *testing.T) {
	buf := Length(100).AppendTo(nil)

	rest, n, out := ParseFrameLength(buf)
	require.Equal(t, Complete, out)
	assert.Equal(t, uint64(100), n)
	assert.Empty(t, rest)

	// every strict prefix is incomplete
	for i := 0; i < len(buf); i++ {
		rest, _, out := ParseFrameLength(buf[:i])
		assert.Equal(t, Incomplete, out, "prefix length %d", i)
		assert.Equal(t, buf[:i], rest)
	}
}

func TestParseMessageType(t *testing.T) {
	buf := Type(MsgTAuthenticate).AppendTo(nil)

	rest, code, out := ParseMessageType(buf)
	require.Equal(t, Complete, out)
	assert.Equal(t, byte(MsgTAuthenticate), code)
	assert.Empty(t, rest)

	_, _, out = ParseMessageType(nil)
	assert.Equal(t, Incomplete, out)
	_, _, out = ParseMessageType(buf[:1])
	assert.Equal(t, Incomplete, out)
	_, _, out = ParseMessageType([]byte{PrefixNull, 1})
	assert.Equal(t, Invalid, out)
}

func TestParseString(t *testing.T) {
	for _, s := range []string{"Hello", "", "\r\n", "ünïcödé"} {
		buf := String(s).AppendTo(nil)

		rest, payload, out := ParseString(buf, 0)
		require.Equal(t, Complete, out, "string %q", s)
		assert.Equal(t, []byte(s), payload)
		assert.Empty(t, rest)

		for i := 0; i < len(buf); i++ {
			_, _, out := ParseString(buf[:i], 0)
			assert.Equal(t, Incomplete, out, "string %q prefix length %d", s, i)
		}
	}
}

func TestParseStringTrailingInput(t *testing.T) {
	buf := String("abc").AppendTo(nil)
	buf = append(buf, PrefixNull)

	rest, payload, out := ParseString(buf, 0)
	require.Equal(t, Complete, out)
	assert.Equal(t, []byte("abc"), payload)
	assert.Equal(t, []byte{PrefixNull}, rest)
}

func TestParseStringBadDelimiter(t *testing.T) {
	buf := String("abc").AppendTo(nil)
	buf[len(buf)-1] = 'x'

	_, _, out := ParseString(buf, 0)
	assert.Equal(t, Invalid, out)

	// mismatch on the first delimiter byte is detected before the second arrives
	buf = buf[:len(buf)-1]
	buf[len(buf)-1] = 'x'
	_, _, out = ParseString(buf, 0)
	assert.Equal(t, Invalid, out)
}

func TestParseStringTooLarge(t *testing.T) {
	buf := String("0123456789").AppendTo(nil)

	_, _, out := ParseString(buf, 5)
	assert.Equal(t, TooLarge, out)

	// the declared length alone is enough to reject
	_, _, out = ParseString(buf[:1+LengthSize], 5)
	assert.Equal(t, TooLarge, out)

	_, _, out = ParseString(buf, 10)
	assert.Equal(t, Complete, out)
}

func TestParseTime(t *testing.T) {
	ts := time.Unix(1000, 0).UTC()
	buf := Time(ts).AppendTo(nil)

	rest, text, out := ParseTime(buf, 0)
	require.Equal(t, Complete, out)
	assert.Equal(t, "1970-01-01T00:16:40Z", string(text))
	assert.Empty(t, rest)

	_, _, out = ParseTime(nil, 0)
	assert.Equal(t, Incomplete, out)

	// a string frame is not a time frame
	_, _, out = ParseTime(String("x").AppendTo(nil), 0)
	assert.Equal(t, Invalid, out)
}

func TestParseNullAndPeek(t *testing.T) {
	p, out := PeekPrefix([]byte{PrefixNull})
	require.Equal(t, Complete, out)
	assert.Equal(t, PrefixNull, p)

	_, out = PeekPrefix(nil)
	assert.Equal(t, Incomplete, out)

	rest, out := ParseNull(Null{}.AppendTo(nil))
	require.Equal(t, Complete, out)
	assert.Empty(t, rest)
}
