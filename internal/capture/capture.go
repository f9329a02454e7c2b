// Package capture records model request and response payloads to disk so
// they can be replayed as test fixtures.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder writes numbered payload files under dir/<session>/. A nil
// Recorder records nothing.
type Recorder struct {
	sessionDir string
	seq        atomic.Uint64
}

// New returns a recorder for dir, or nil when dir is empty.
func New(dir string) *Recorder {
	if dir == "" {
		return nil
	}
	return &Recorder{sessionDir: filepath.Join(dir, time.Now().Format("20060102-150405"))}
}

// Enabled reports whether r records anything.
func (r *Recorder) Enabled() bool {
	return r != nil
}

// WriteBlob stores arbitrary bytes using the provided extension.
func (r *Recorder) WriteBlob(category, ext string, data []byte) {
	if !r.Enabled() {
		return
	}
	r.writeFile(category, ext, data)
}

func (r *Recorder) writeFile(category, ext string, data []byte) {
	seq := r.seq.Add(1)
	if err := os.MkdirAll(r.sessionDir, 0o700); err != nil {
		log.Warn().Err(err).Str("dir", r.sessionDir).Msg("capture: failed to create directory")
		return
	}

	path := filepath.Join(r.sessionDir, fmt.Sprintf("%s-%04d.%s", category, seq, ext))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return
	}

	log.Debug().Str("path", path).Msg("capture: wrote payload")
}
