// Package source abstracts the inbound protocol byte stream.
package source

// Source delivers one protocol byte per call. Next returns ok=false when no
// byte arrived within the source's poll interval; that is the caller's cue to
// run the idle policy before polling again. A non-nil error means the stream
// is gone for good.
type Source interface {
	Next() (b byte, ok bool, err error)
	// Handshake signals readiness to the sender before the first poll.
	Handshake() error
	Close() error
}
