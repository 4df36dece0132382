package rewrite

import (
	"bytes"
	"net/http"
)

// bufferedWriter holds a response's status and body until finalize.
// Headers go straight to the wrapped writer's map, so a Content-Type set
// after the first Write is still seen at finalize.
type bufferedWriter struct {
	w           http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	done        bool
}

func newBufferedWriter(w http.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{w: w}
}

func (b *bufferedWriter) Header() http.Header {
	return b.w.Header()
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.done || b.wroteHeader {
		return
	}
	// Informational responses (103 Early Hints) are not the final status
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		b.w.WriteHeader(code)
		return
	}
	b.status = code
	b.wroteHeader = true
}

// Write buffers p. Writes after finalize are dropped without error.
func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.done {
		return len(p), nil
	}
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.buf.Write(p)
}

// Flush is a no-op: nothing is released before finalize.
func (b *bufferedWriter) Flush() {}

func (b *bufferedWriter) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}
