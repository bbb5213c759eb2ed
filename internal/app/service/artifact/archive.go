package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// buildArchive zips the rendered documents. The archive bytes are only valid
// once the writer is closed; Close is the finalization signal, so the buffer
// is returned strictly after it succeeds.
func buildArchive(docs [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, doc := range docs {
		w, err := zw.Create(fmt.Sprintf("certificate%d.svg", i+1))
		if err != nil {
			return nil, fmt.Errorf("failed to add archive entry %d: %w", i+1, err)
		}
		if _, err := w.Write(doc); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %d: %w", i+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
