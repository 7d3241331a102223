package message

import (
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/kvsd/protocol/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawMessage frames an arbitrary payload with a correct declared length
func rawMessage(code byte, payload []byte) []byte {
	buf := []byte{frame.PrefixMessageStart, frame.PrefixFrameLength}
	buf = binary.BigEndian.AppendUint64(buf, uint64(2+len(payload)))
	buf = append(buf, frame.PrefixMessageType, code)
	return append(buf, payload...)
}

func TestCheckIncompletePrefixes(t *testing.T) {
	for i, msg := range testMessages() {
		buf, err := Encode(msg)
		require.NoError(t, err)

		for l := 0; l < len(buf); l++ {
			n, out, err := Check(buf[:l], DefaultLimits())
			require.NoError(t, err, "message %d prefix %d", i, l)
			assert.Equal(t, frame.Incomplete, out, "message %d prefix %d", i, l)
			assert.Zero(t, n)
		}
	}
}

func TestCheckStopsAtMessageBoundary(t *testing.T) {
	first, err := Encode(NewAuthenticate("u", "p"))
	require.NoError(t, err)
	second, err := Encode(Ping{})
	require.NoError(t, err)

	buf := append(append([]byte{}, first...), second[:4]...)
	n, out, err := Check(buf, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, frame.Complete, out)
	assert.Equal(t, len(first), n)
}

func TestCheckUnknownMessageType(t *testing.T) {
	buf := rawMessage(9, nil)

	_, out, err := Check(buf, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	var invalid *frame.InvalidMessageTypeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, byte(9), invalid.Code)

	// detected before the rest of the body arrives
	header := []byte{frame.PrefixMessageStart, frame.PrefixFrameLength}
	header = binary.BigEndian.AppendUint64(header, 100)
	header = append(header, frame.PrefixMessageType, 0)
	_, out, err = Check(header, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	require.ErrorAs(t, err, &invalid)
}

func TestCheckWrongTags(t *testing.T) {
	_, out, err := Check([]byte{'x'}, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	var expect *ExpectError
	require.ErrorAs(t, err, &expect)
	assert.Equal(t, "message_start", expect.Frame)

	_, out, err = Check([]byte{'*', '#'}, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	require.ErrorAs(t, err, &expect)
	assert.Equal(t, "frame_length", expect.Frame)
}

func TestCheckDeclaredLengthTooLarge(t *testing.T) {
	limits := Limits{MaxMessageLength: 64, MaxPayloadLength: 16}

	header := []byte{frame.PrefixMessageStart, frame.PrefixFrameLength}
	header = binary.BigEndian.AppendUint64(header, 65)
	_, out, err := Check(header, limits)
	assert.Equal(t, frame.TooLarge, out)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))

	// payload limit applies inside a message that fits
	buf, encErr := Encode(NewAuthenticate("0123456789abcdefg", ""))
	require.NoError(t, encErr)
	_, out, err = Check(buf, limits)
	assert.Equal(t, frame.Invalid, out)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))
}

func TestCheckLengthMismatch(t *testing.T) {
	buf, err := Encode(NewAuthenticate("user", "pass"))
	require.NoError(t, err)
	declared := binary.BigEndian.Uint64(buf[2:frame.HeaderLength])

	// declared length longer than the payload grammar
	longer := append([]byte{}, buf...)
	binary.BigEndian.PutUint64(longer[2:frame.HeaderLength], declared+1)
	longer = append(longer, 0)
	_, out, err := Check(longer, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	// declared length cutting the password short
	shorter := append([]byte{}, buf...)
	binary.BigEndian.PutUint64(shorter[2:frame.HeaderLength], declared-1)
	_, out, err = Check(shorter, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	// declared length without room for the type byte
	tiny := []byte{frame.PrefixMessageStart, frame.PrefixFrameLength}
	tiny = binary.BigEndian.AppendUint64(tiny, 1)
	tiny = append(tiny, frame.PrefixMessageType, byte(frame.MsgTPing))
	_, out, err = Check(tiny, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestCheckBadPingPresenceMarker(t *testing.T) {
	buf := rawMessage(byte(frame.MsgTPing), []byte{frame.PrefixString, frame.PrefixNull})

	_, out, err := Check(buf, DefaultLimits())
	assert.Equal(t, frame.Invalid, out)
	var expect *ExpectError
	require.ErrorAs(t, err, &expect)
	assert.Contains(t, expect.Frame, "client_timestamp")
}

func TestParseInvalidUTF8(t *testing.T) {
	payload := frame.String([]byte{0xff, 0xfe}).AppendTo(nil)
	payload = frame.String("pass").AppendTo(payload)
	buf := rawMessage(byte(frame.MsgTAuthenticate), payload)

	// grammar is fine, the content is not
	_, out, err := Check(buf, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, frame.Complete, out)

	_, err = Parse(buf, DefaultLimits())
	assert.True(t, errors.Is(err, ErrInvalidUTF8))
}

func TestParseInvalidTimestamp(t *testing.T) {
	text := []byte("not a timestamp")
	payload := []byte{frame.PrefixTime}
	payload = binary.BigEndian.AppendUint64(payload, uint64(len(text)))
	payload = append(payload, text...)
	payload = append(payload, frame.Delimiter...)
	payload = append(payload, frame.PrefixNull)
	buf := rawMessage(byte(frame.MsgTPing), payload)

	_, out, err := Check(buf, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, frame.Complete, out)

	_, err = Parse(buf, DefaultLimits())
	assert.True(t, errors.Is(err, ErrInvalidTimestamp))
}

func TestParseMaterializesFrames(t *testing.T) {
	buf, err := Encode(Ping{ServerTimestamp: timePtr(1000, 0)})
	require.NoError(t, err)

	frames, err := Parse(buf, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, frame.MsgTPing, frames.Type)
	assert.Equal(t, uint64(len(buf)-frame.HeaderLength), frames.Length)
	require.Len(t, frames.Frames, 5)
	assert.IsType(t, frame.MessageStart{}, frames.Frames[0])
	assert.IsType(t, frame.Null{}, frames.Frames[3])
	assert.IsType(t, frame.Time{}, frames.Frames[4])
}

func TestParseRejectsIncomplete(t *testing.T) {
	buf, err := Encode(Ping{})
	require.NoError(t, err)

	_, err = Parse(buf[:len(buf)-1], DefaultLimits())
	assert.Error(t, err)
}
