package spanstore

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/the-yaml-life/tyl-tracing"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// ExportJSONL writes spans to path as one JSON object per line. The write
// is atomic and durable: renameio fsyncs a temp file before renaming it
// over the target, so a crash never leaves a half-written snapshot.
func ExportJSONL(path string, spans []tracing.Span) error {
	logger := tracelog.WithComponent("spanstore")

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending export file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending export file")
		}
	}()

	enc := json.NewEncoder(pendingFile)
	for _, span := range spans {
		if err := enc.Encode(span); err != nil {
			return fmt.Errorf("encode span %s: %w", span.SpanID, err)
		}
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace export file: %w", err)
	}
	return nil
}
