package bufferpool

import "go.uber.org/zap"

const (
	// DefaultPageSize matches the OS page size, as in spec.md §3.
	DefaultPageSize uint32 = 4096

	// DefaultSlotCount is the default number of in-memory frames.
	DefaultSlotCount = 64

	// DefaultLRUK is the K in LRU-K: the number of most-recent accesses
	// tracked per frame before a victim's age is well-defined.
	DefaultLRUK = 20

	// MinSlotCount enforces the pin-budget bound spec.md §4.5.5 and §9
	// ask implementations to document: a handful of frames beyond the
	// deepest expected descent plus sibling/scratch pins during
	// split/merge/borrow.
	MinSlotCount = 4
)

// Options configures a Pool. Construct via NewDefaultOptions and the
// WithXxx functions, mirroring the functional-options shape used for
// storage-engine configuration elsewhere in this codebase's lineage.
type Options struct {
	PageSize  uint32
	SlotCount int
	LRUK      int
	Logger    *zap.Logger
}

// OptionFunc mutates an Options value during construction.
type OptionFunc func(*Options)

// NewDefaultOptions returns the engine's recommended defaults.
func NewDefaultOptions() Options {
	return Options{
		PageSize:  DefaultPageSize,
		SlotCount: DefaultSlotCount,
		LRUK:      DefaultLRUK,
		Logger:    zap.NewNop(),
	}
}

// WithPageSize overrides the fixed page size. Tests use this to shrink
// pages so that small node capacities exercise splits/merges quickly.
func WithPageSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.PageSize = size
		}
	}
}

// WithSlotCount overrides the number of in-memory frames.
func WithSlotCount(n int) OptionFunc {
	return func(o *Options) {
		if n >= MinSlotCount {
			o.SlotCount = n
		}
	}
}

// WithLRUK overrides K in LRU-K eviction.
func WithLRUK(k int) OptionFunc {
	return func(o *Options) {
		if k > 0 {
			o.LRUK = k
		}
	}
}

// WithLogger attaches a structured logger; defaults to a no-op logger.
func WithLogger(l *zap.Logger) OptionFunc {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func resolveOptions(opts ...OptionFunc) Options {
	o := NewDefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.LRUK > o.SlotCount {
		o.LRUK = o.SlotCount
	}
	return o
}
