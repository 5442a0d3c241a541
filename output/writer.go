package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/protocol"
)

// TimeLayout renders the run timestamp as YYYY-MM-DD HH-MM-SS.
const TimeLayout = "2006-01-02 15-04-05"

// Writer saves response bodies and diagnostic dumps under Dir. Every file of
// one run shares the same name stem: "<host> - <timestamp>".
type Writer struct {
	Dir   string
	Stamp string
	log   obs.Logger
}

// NewWriter fixes the run timestamp to now. log may be nil.
func NewWriter(dir string, now time.Time, log obs.Logger) *Writer {
	if log == nil {
		log = obs.NopLogger{}
	}
	return &Writer{
		Dir:   dir,
		Stamp: now.Format(TimeLayout),
		log:   log,
	}
}

// Prepare creates the output directory. An existing directory is fine.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.NewInvalidArgumentError(fmt.Sprintf("could not create '%s' directory: %v", w.Dir, err))
	}
	return nil
}

// Path returns the file name for host with the given extension.
func (w *Writer) Path(host, ext string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s - %s.%s", sanitize(host), w.Stamp, ext))
}

// WriteBody saves res.Body, named after host and the body kind. It writes
// nothing and returns "" for an empty body.
func (w *Writer) WriteBody(host string, res *protocol.HttpResponse) (string, error) {
	if len(res.Body) == 0 {
		return "", nil
	}
	return w.write(w.Path(host, res.Type.Extension()), res.Body)
}

// DumpRequest saves the serialized request payload.
func (w *Writer) DumpRequest(host string, req *protocol.HttpRequest) (string, error) {
	return w.write(w.Path(host, "req.txt"), req.Payload)
}

// DumpResponse saves the raw response header block.
func (w *Writer) DumpResponse(host string, res *protocol.HttpResponse) (string, error) {
	return w.write(w.Path(host, "res.txt"), res.RawHeaders)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", errors.NewInvalidArgumentError(fmt.Sprintf("could not open '%s' to write: %v", name, err))
	}
	w.log.Logf(obs.Debug, "Wrote %d bytes to '%s'", len(data), name)
	return name, nil
}

// sanitize keeps host usable as a file name component.
func sanitize(host string) string {
	out := []byte(host)
	for i, c := range out {
		if c == '/' || c == os.PathSeparator {
			out[i] = '_'
		}
	}
	return string(out)
}
