// Package message assembles complete protocol messages from raw bytes and
// maps them onto domain values.
//
// Decoding happens in two phases over the same read-only bytes:
//
//   - Check walks the grammar of one message without building any values. It
//     reports Complete together with the exact number of bytes the message
//     occupies, Incomplete when more input is needed, or Invalid / TooLarge
//     with an error naming the frame that was expected.
//
//   - Parse re-walks the bytes Check accepted and materializes MessageFrames.
//
// Decode turns MessageFrames into a Message (Ping, Authenticate, ...), and
// Append / Encode write a Message back in the same grammar.
//
// Wire layout of a message:
//
//	'*' '@' u64(declared) '#' type payload...
//
// The declared length covers everything after the length value. Receivers
// use it as a completeness hint and as an upper bound for the payload walk.
//
// Success, Fail, Set, Get and Delete are reserved: they are framed like any
// other message but encoding or decoding them returns a NotImplementedError.
package message
