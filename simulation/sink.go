package simulation

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/thrasher-corp/blotter/blotter"
)

// NewJSONLines writes transactions to w. Close does not close w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

// CreateJSONLines opens the file at path for transactions. The file is
// truncated unless appending, which resumed runs do.
func CreateJSONLines(path string, appending bool) (*JSONLines, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appending {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o640)
	if err != nil {
		return nil, err
	}
	return &JSONLines{w: f, closer: f}, nil
}

// Write encodes each transaction of the bar on its own line
func (j *JSONLines) Write(res *blotter.BarResult) error {
	j.m.Lock()
	defer j.m.Unlock()
	if j.closed {
		return errSinkClosed
	}
	enc := json.NewEncoder(j.w)
	for i := range res.Transactions {
		if err := enc.Encode(&res.Transactions[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close stops further writes and closes the file it created
func (j *JSONLines) Close() error {
	j.m.Lock()
	defer j.m.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
