// Package console imposes prompt and line framing on a raw byte channel.
//
// The boot monitor on the router speaks a plain-text, newline-terminated
// protocol with no length prefixes or checksums. The only way to know where a
// response ends is to watch the byte stream for a known terminator: the
// prompt string after a command completes, or '\n' at the end of each output
// line. Synchronizer does exactly that, one byte at a time.
//
// # Blocking
//
// ReadUntil has no timeout and no size limit. If the device never emits the
// pattern the call blocks until the channel returns an error (unplugged,
// closed). This mirrors an interactive console session: the device is trusted
// to answer eventually.
//
// # Matching
//
// Pattern detection uses an incremental prefix-function matcher, so each
// received byte costs amortised O(1) regardless of pattern length. The bytes
// returned are identical to a naive "accumulate, then compare the suffix"
// loop.
package console
