package dispatch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var ErrLineTooLong = errors.New("command line too long")

// lineReader splits the host stream on '\n'. Oversized lines are consumed up
// to their terminator and reported, so the stream stays aligned.
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

func (l *lineReader) next() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > l.max+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, fmt.Errorf("%w: limit is %d bytes", ErrLineTooLong, l.max)
			}
			return bytes.TrimRight(line, "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, fmt.Errorf("%w: limit is %d bytes", ErrLineTooLong, l.max)
			}
			if len(line) > 0 {
				return bytes.TrimRight(line, "\r\n"), nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}
