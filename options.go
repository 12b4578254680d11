package lakego

import (
	"github.com/hupe1980/lakego/resource"
	"github.com/hupe1980/lakego/tabletmeta"
	"github.com/hupe1980/lakego/updatemgr"
)

type options struct {
	logger          *Logger
	metaStore       *tabletmeta.Store
	updateMgr       *updatemgr.Manager
	controller      *resource.Controller
	seed            uint64
	scanConcurrency int
	persistIndex    bool
}

// Option configures recovery behavior.
type Option func(*options)

// WithLogger configures structured logging. If nil is passed, logging
// is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetadataStore reuses an existing metadata store instead of
// creating one over the segment blob store. Use this when metadata and
// segment data live in different stores.
func WithMetadataStore(s *tabletmeta.Store) Option {
	return func(o *options) {
		o.metaStore = s
	}
}

// WithUpdateManager installs the rebuilt index into an existing process
// wide registry. Without it a private manager is used and the index is
// only reachable through the returned metadata.
func WithUpdateManager(m *updatemgr.Manager) Option {
	return func(o *options) {
		o.updateMgr = m
	}
}

// WithResourceController throttles segment reads and bounds concurrent
// background recoveries.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithSeed decorrelates the key hash of the rebuilt index from other
// tablets' indexes.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithScanConcurrency bounds how many segments of one rowset are read
// concurrently during replay.
func WithScanConcurrency(n int) Option {
	return func(o *options) {
		o.scanConcurrency = n
	}
}

// WithPersistIndex writes the rebuilt index snapshot back to the blob
// store after a successful commit.
func WithPersistIndex(persist bool) Option {
	return func(o *options) {
		o.persistIndex = persist
	}
}
