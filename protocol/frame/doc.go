// Package frame defines the byte level wire grammar of the kvsd protocol and
// the streaming parsers for its primitives.
//
// Every primitive starts with a one byte prefix tag. Lengths are 8 byte big
// endian unsigned integers. Variable length payloads (strings, timestamps) are
// encoded as tag, length N, N payload bytes and the "\r\n" delimiter:
//
//	message start   '*'
//	frame length    '@' u64
//	message type    '#' code
//	string          '+' u64 N, N utf8 bytes, "\r\n"
//	time            'T' u64 N, N RFC 3339 bytes, "\r\n"
//	null            '|'
//
// The parsers are streaming: a short input yields Incomplete rather than an
// error, so callers can wait for more bytes and retry from the same offset.
package frame
