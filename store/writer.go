package store

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by CensusWriter.Add after Close.
var ErrClosed = errors.New("census writer closed")

// CensusWriter batches rows on a background goroutine and flushes a parquet
// file every flushRows rows. Close drains and writes the remainder.
type CensusWriter struct {
	outDir    string
	flushRows int
	logger    *slog.Logger

	in   chan CensusRow
	done chan struct{}

	// closeMu guards closed and sends on in; mu guards the results. The
	// loop only ever takes mu, so a blocked Add cannot stall a flush.
	closeMu sync.RWMutex
	closed  bool

	mu    sync.Mutex
	files []string
	err   error
}

func NewCensusWriter(outDir string, flushRows int, logger *slog.Logger) *CensusWriter {
	if flushRows <= 0 {
		flushRows = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &CensusWriter{
		outDir:    outDir,
		flushRows: flushRows,
		logger:    logger,
		in:        make(chan CensusRow, 256),
		done:      make(chan struct{}),
	}
	go w.loop()
	return w
}

// Add queues a row. It blocks while the queue is full.
func (w *CensusWriter) Add(row CensusRow) error {
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	w.in <- row
	return nil
}

// Close flushes pending rows and returns the first write error, if any.
func (w *CensusWriter) Close() error {
	w.closeMu.Lock()
	if w.closed {
		w.closeMu.Unlock()
		return ErrClosed
	}
	w.closed = true
	close(w.in)
	w.closeMu.Unlock()

	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Files lists the parquet files written so far. Only stable after Close.
func (w *CensusWriter) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

func (w *CensusWriter) loop() {
	defer close(w.done)

	pending := make([]CensusRow, 0, w.flushRows)
	for row := range w.in {
		pending = append(pending, row)
		if len(pending) < w.flushRows {
			continue
		}
		w.flush(pending, false)
		pending = pending[:0]
	}
	if len(pending) > 0 {
		w.flush(pending, true)
	}
}

func (w *CensusWriter) flush(rows []CensusRow, final bool) {
	path, err := WriteCensusBatch(w.outDir, rows)
	if err != nil {
		w.logger.Error("census flush failed", "rows", len(rows), "final", final, "error", err)
		w.mu.Lock()
		if w.err == nil {
			w.err = err
		}
		w.mu.Unlock()
		return
	}
	w.logger.Info("census flush ok", "path", path, "rows", len(rows), "final", final)
	w.mu.Lock()
	w.files = append(w.files, path)
	w.mu.Unlock()
}
