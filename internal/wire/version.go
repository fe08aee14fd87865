package wire

// ProtocolVersion is the wire/terminal-buffer version this build speaks.
// Per §4.2, contents_formatted() compatibility is not promised across
// versions, so the server rejects a mismatched streamer or watcher with
// Error{ProtocolMismatch} rather than risk silently corrupting a session.
const ProtocolVersion = "1.0.0"
