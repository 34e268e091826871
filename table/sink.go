package table

import (
	"bufio"
	"os"
)

// Sink is the append-only output stream a Builder writes to (spec §6
// "Output sink (input capability)"). It is borrowed, not owned: closing it
// is the caller's responsibility once Finish returns.
type Sink interface {
	// Append writes bytes to the end of the stream.
	Append(p []byte) error
	// Flush drains any internal buffering on a best-effort basis.
	Flush() error
}

// fileSink is a Sink backed by a buffered *os.File, the concrete output
// capability the cmd/sstbuild CLI hands to a Builder.
type fileSink struct {
	f *os.File
	w *bufio.Writer
}

// NewFileSink wraps f in a buffered Sink. The caller retains ownership of
// f and must Close it after the Builder's Finish returns. Finish does not
// flush the sink, so the blocks and footer it appends stay buffered until
// the caller calls Flush.
func NewFileSink(f *os.File) Sink {
	return &fileSink{f: f, w: bufio.NewWriter(f)}
}

func (s *fileSink) Append(p []byte) error {
	_, err := s.w.Write(p)
	return err
}

func (s *fileSink) Flush() error {
	return s.w.Flush()
}
