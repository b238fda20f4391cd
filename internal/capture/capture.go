// Package capture records webhook deliveries and posted comments to disk for
// building fixtures. A nil *Recorder is valid and records nothing.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder writes numbered capture files into a per-process session directory.
type Recorder struct {
	sessionDir string
	seq        atomic.Uint64
}

// New returns a recorder rooted at dir, or nil when dir is empty.
func New(dir string) *Recorder {
	if dir == "" {
		return nil
	}
	return &Recorder{
		sessionDir: filepath.Join(dir, time.Now().Format("20060102-150405")),
	}
}

// Enabled reports whether captures are written.
func (r *Recorder) Enabled() bool {
	return r != nil
}

// Dir returns the session directory.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.sessionDir
}

func (r *Recorder) writeFile(category, ext string, data []byte) {
	seq := r.seq.Add(1)
	if err := os.MkdirAll(r.sessionDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", r.sessionDir).Msg("capture: failed to create directory")
		return
	}

	path := filepath.Join(r.sessionDir, fmt.Sprintf("%s-%04d.%s", category, seq, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return
	}

	log.Debug().Str("path", path).Msg("capture: wrote file")
}

// WriteJSON marshals the payload to indented JSON and stores it. Failures are
// logged but otherwise ignored.
func (r *Recorder) WriteJSON(category string, payload interface{}) {
	if r == nil {
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("capture: failed to marshal payload")
		return
	}
	r.writeFile(category, "json", data)
}

// WriteBlob stores arbitrary bytes using the provided extension.
func (r *Recorder) WriteBlob(category, ext string, data []byte) {
	if r == nil {
		return
	}
	r.writeFile(category, ext, data)
}
