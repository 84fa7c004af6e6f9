package pool

import (
	"bufio"
	"fmt"
	"io"
)

// Dump writes the pool's configuration followed by one line per slot.
func (p *Pool) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if p == nil || !p.initialized {
		fmt.Fprintln(bw, "pool: closed")
		return bw.Flush()
	}
	fmt.Fprintf(bw, "object_size = %d\n", p.objectSize)
	fmt.Fprintf(bw, "initial_count = %d\n", p.initialCount)
	fmt.Fprintf(bw, "maximum_objects = %d\n", p.maxObjects)
	fmt.Fprintf(bw, "mode = %s\n", p.mode)
	fmt.Fprintf(bw, "chunks = %d\n", len(p.chunks))
	for i, c := range p.chunks {
		fmt.Fprintf(bw, "\tchunk %d - slots [%d, %d) - %d bytes\n", i, c.off, c.off+c.count, len(c.mem))
	}
	for i, st := range p.Slots() {
		fmt.Fprintf(bw, "\t%d - %s\n", i, st)
	}
	return bw.Flush()
}
