package main

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// deferredWriter buffers JSON log lines while a full-screen view is running.
type deferredWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Flush replays the buffered lines into w one event at a time, so a
// zerolog.ConsoleWriter can format each of them.
func (d *deferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sc := bufio.NewScanner(&d.buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if _, err := w.Write(append(bytes.Clone(sc.Bytes()), '\n')); err != nil {
			return err
		}
	}
	return sc.Err()
}
