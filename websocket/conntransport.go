package websocket

import (
	"bufio"
	"net"
)

// connTransport is the Transport the handshake wires an Endpoint to: a
// net.Conn fronted by the buffered reader/writer Upgrade already set up
// during the hijack (adapted from the teacher's conn.go, which built
// the same pair for its blocking Conn.Write/Read).
//
// Write runs synchronously on the calling goroutine and reports the
// outcome to handler before returning. That is a valid Transport
// implementation (spec.md's doWrite capability never requires
// asynchrony, only a handler called exactly once) and keeps this
// adapter a thin wrapper around bufio.Writer rather than a second
// worker goroutine and queue.
type connTransport struct {
	conn   net.Conn
	reader *bufio.Reader // retained for the receive-path collaborator; unused here
	writer *bufio.Writer
}

func newConnTransport(conn net.Conn, reader *bufio.Reader, writer *bufio.Writer) *connTransport {
	return &connTransport{conn: conn, reader: reader, writer: writer}
}

// Reader exposes the buffered reader set up during the handshake, for
// whatever receive-path implementation an application wires in; this
// package never reads from it itself.
func (t *connTransport) Reader() *bufio.Reader {
	return t.reader
}

// Write implements Transport.
func (t *connTransport) Write(handler SendHandler, bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		if _, err := t.writer.Write(b); err != nil {
			handler.OnResult(failResult(wrapErrorf(ErrIO, "write frame: %v", err)))
			return
		}
	}
	if err := t.writer.Flush(); err != nil {
		handler.OnResult(failResult(wrapErrorf(ErrIO, "flush frame: %v", err)))
		return
	}
	handler.OnResult(okResult())
}

// Close implements Transport.
func (t *connTransport) Close() error {
	return t.conn.Close()
}
