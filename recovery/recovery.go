package recovery

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/pkindex"
	"github.com/hupe1980/lakego/resource"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/tabletmeta"
	"github.com/hupe1980/lakego/updatemgr"
)

// Options configures a Recoverer.
type Options struct {
	// Logger receives structured progress events. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Seed decorrelates the key hash of the rebuilt index from other
	// tablets' indexes.
	Seed uint64

	// ScanConcurrency bounds how many segments of one rowset are read
	// concurrently. Chunks are always applied to the index serially.
	// Defaults to 4.
	ScanConcurrency int

	// Controller throttles segment reads and bounds concurrent
	// recoveries. Optional.
	Controller *resource.Controller

	// PersistIndex writes the rebuilt index snapshot back to the blob
	// store after a successful commit. The snapshot is a cache; a
	// failed write is logged and does not fail the run.
	PersistIndex bool
}

// Recoverer rebuilds one tablet's primary key index and delete vectors.
// A Recoverer is single-use: create one per run.
type Recoverer struct {
	tabletID   model.TabletID
	metaStore  *tabletmeta.Store
	blobStore  blobstore.BlobStore
	updateMgr  *updatemgr.Manager
	indexFiles *pkindex.FileStore
	reader     *rowset.Reader
	opts       Options

	phase atomic.Int32
	index *pkindex.Index
}

// New creates a Recoverer for tabletID.
func New(tabletID model.TabletID, metaStore *tabletmeta.Store, blobStore blobstore.BlobStore, mgr *updatemgr.Manager, optFns ...func(o *Options)) *Recoverer {
	opts := Options{
		Logger:          slog.Default(),
		ScanConcurrency: 4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ScanConcurrency <= 0 {
		opts.ScanConcurrency = 1
	}

	return &Recoverer{
		tabletID:   tabletID,
		metaStore:  metaStore,
		blobStore:  blobStore,
		updateMgr:  mgr,
		indexFiles: pkindex.NewFileStore(blobStore),
		reader: rowset.NewReader(blobStore, func(o *rowset.ReaderOptions) {
			o.Controller = opts.Controller
		}),
		opts: opts,
	}
}

// TabletID returns the tablet being recovered.
func (r *Recoverer) TabletID() model.TabletID {
	return r.tabletID
}

// Phase returns the current phase. Safe to call from other goroutines
// while Run is in flight.
func (r *Recoverer) Phase() Phase {
	return Phase(r.phase.Load())
}

func (r *Recoverer) setPhase(p Phase) {
	r.phase.Store(int32(p))
}

// Run executes the full recovery and returns the newly committed
// metadata snapshot. On any failure the previously committed version
// stays authoritative and the run ends in PhaseFailed; Run never
// retries on its own.
func (r *Recoverer) Run(ctx context.Context) (*tabletmeta.Metadata, error) {
	start := time.Now()
	logger := r.opts.Logger.With("tablet", int64(r.tabletID))

	fail := func(phase Phase, err error) (*tabletmeta.Metadata, error) {
		r.setPhase(PhaseFailed)
		r.index = nil
		wrapped := &Error{TabletID: r.tabletID, Phase: phase, Err: err}
		logger.ErrorContext(ctx, "recovery failed", "phase", phase.String(), "error", err)
		return nil, wrapped
	}

	if c := r.opts.Controller; c != nil {
		if err := c.AcquireWorker(ctx); err != nil {
			return fail(PhaseIdle, err)
		}
		defer c.ReleaseWorker()
	}

	r.setPhase(PhaseCleanup)
	meta, err := r.metaStore.Load(ctx, r.tabletID)
	if err != nil {
		return fail(PhaseCleanup, err)
	}
	builder := tabletmeta.NewBuilder(meta)
	if err := r.cleanup(ctx, builder); err != nil {
		return fail(PhaseCleanup, err)
	}
	logger.InfoContext(ctx, "recovery cleanup done", "base_version", int64(meta.Version))

	// Segment key files store keys already encoded with the key schema
	// codec. Deriving the key schema here validates that the tablet's
	// schema is fit for primary key use before any replay I/O starts.
	r.setPhase(PhaseSchema)
	if _, err := meta.Schema.KeySchema(); err != nil {
		return fail(PhaseSchema, err)
	}

	r.setPhase(PhaseReplay)
	r.index = pkindex.NewSeeded(r.opts.Seed)
	acc := newDeletionAccumulator(builder.NextVersion())

	rowsets := append([]*rowset.Meta(nil), meta.Rowsets...)
	if err := rowset.SortForReplay(rowsets); err != nil {
		return fail(PhaseReplay, err)
	}
	for _, rs := range rowsets {
		if err := r.replayRowset(ctx, rs, acc); err != nil {
			return fail(PhaseReplay, err)
		}
	}
	logger.InfoContext(ctx, "recovery replay done",
		"rowsets", len(rowsets),
		"keys", r.index.Len(),
	)

	r.setPhase(PhaseFinalize)
	acc.drainInto(builder)

	next, err := builder.Commit()
	if err != nil {
		return fail(PhaseFinalize, err)
	}
	if err := r.metaStore.Save(ctx, next); err != nil {
		return fail(PhaseFinalize, err)
	}

	r.updateMgr.Put(r.tabletID, r.index)

	if r.opts.PersistIndex {
		if err := r.indexFiles.Save(ctx, r.tabletID, r.index); err != nil {
			logger.WarnContext(ctx, "index snapshot write failed", "error", err)
		}
	}

	r.setPhase(PhaseCommitted)
	logger.InfoContext(ctx, "recovery committed",
		"version", int64(next.Version),
		"delete_vectors", len(next.DeleteVectors),
		"duration", time.Since(start),
	)
	return next, nil
}

// cleanup removes every trace of previous primary key state so the
// rebuild starts from a blank slate. All steps are idempotent; state
// that is already absent counts as success.
func (r *Recoverer) cleanup(ctx context.Context, builder *tabletmeta.Builder) error {
	builder.ClearDeleteVectors()
	r.updateMgr.Evict(r.tabletID)

	if err := r.indexFiles.RemoveMeta(ctx, r.tabletID); err != nil {
		return &CleanupError{Step: "remove index meta", Err: err}
	}
	if err := r.indexFiles.RemoveFiles(ctx, r.tabletID); err != nil {
		return &CleanupError{Step: "remove index files", Err: err}
	}
	return nil
}

// replayRowset scans all segments of rs and applies their keys to the
// index. Segments are read concurrently but applied strictly in segment
// order, so the last write within the rowset wins deterministically.
func (r *Recoverer) replayRowset(ctx context.Context, rs *rowset.Meta, acc *deletionAccumulator) error {
	if len(rs.Segments) == 0 {
		return nil
	}

	its, err := r.reader.OpenSegmentIterators(ctx, rs)
	if err != nil {
		return err
	}
	defer func() {
		for _, it := range its {
			it.Close()
		}
	}()

	chunksBySeg := make([][]*rowset.Chunk, len(its))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.ScanConcurrency)
	for i, it := range its {
		g.Go(func() error {
			chunks, err := drainSegment(gctx, it)
			if err != nil {
				return err
			}
			chunksBySeg[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, chunks := range chunksBySeg {
		for _, chunk := range chunks {
			r.applyChunk(rs.ID, chunk, acc)
		}
	}
	return nil
}

func drainSegment(ctx context.Context, it *rowset.SegmentIterator) ([]*rowset.Chunk, error) {
	var chunks []*rowset.Chunk
	for {
		chunk, err := it.Next(ctx)
		if err != nil {
			if isEOF(err) {
				return chunks, nil
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
}

// applyChunk upserts a fully decoded chunk into the index. A key that
// was already present supersedes its previous occurrence; the old row is
// recorded in the deletion accumulator.
func (r *Recoverer) applyChunk(rsID model.RowsetID, chunk *rowset.Chunk, acc *deletionAccumulator) {
	for i, key := range chunk.Keys {
		loc := model.RowLocation{
			Rowset:  rsID,
			Segment: chunk.Segment,
			Row:     chunk.BaseRow + model.RowOrdinal(i),
		}
		prev, replaced := r.index.Upsert(key, r.index.Hash(key), loc)
		if replaced {
			acc.markDeleted(prev)
		}
	}
}
