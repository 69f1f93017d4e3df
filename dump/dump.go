/*package dump writes particle trajectories to disk in the plain XYZ
text format, one frame per call, so runs can be replayed in standard
visualization tools.
*/
package dump

import (
	"bufio"
	"fmt"
	"os"

	"github.com/phil-mansfield/gomd/state"
)

// Writer appends XYZ frames to a file. Frames are buffered so that
// periodic dumps during a run don't pay a syscall per particle.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
}

// Create creates or truncates the dump file at the given path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{f, bufio.NewWriterSize(f, 1<<20)}, nil
}

// WriteFrame appends one frame holding every particle's type and
// position, with the step recorded in the comment line.
func (w *Writer) WriteFrame(s *state.State, step int) error {
	if _, err := fmt.Fprintf(w.buf, "%d\nstep %d\n", s.N, step); err != nil {
		return err
	}
	for i := 0; i < s.N; i++ {
		_, err := fmt.Fprintf(
			w.buf, "%d %g %g %g\n",
			s.Type[i], s.X[3*i], s.X[3*i+1], s.X[3*i+2],
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered frames and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
