package signature

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	TableEntries = 1 << 24
	RecordLen    = 4
	// DefaultTablePath is where the external table is looked up unless configured otherwise
	DefaultTablePath = "videocrypt10-data.bin"
)

type Tier string

const (
	TierEmbedded Tier = "embedded"
	TierExternal Tier = "external"
)

var ErrNotFound = errors.New("no signature for hash")

// Entry maps a message hash onto its signature.
// A zero signature means the hash is known to have none.
type Entry struct {
	Hash      uint32
	Signature uint32
}

// LookupHook is notified about every lookup attempt
type LookupHook func(tier Tier, found bool)

// LoadHook is notified once the external table load has been attempted
type LoadHook func(ok bool, records int)

type Resolver struct {
	embedded []Entry
	path     string
	logger   *zerolog.Logger
	onLookup LookupHook
	onLoad   LoadHook

	once   sync.Once
	table  []byte
	loaded atomic.Bool
}

type Option func(r *Resolver) error

func New(embedded []Entry, opts ...Option) (*Resolver, error) {
	nop := zerolog.Nop()
	r := &Resolver{
		embedded: embedded,
		path:     DefaultTablePath,
		logger:   &nop,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func WithTablePath(path string) Option {
	return func(r *Resolver) error {
		r.path = path
		return nil
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = logger
		return nil
	}
}

func WithLookupHook(hook LookupHook) Option {
	return func(r *Resolver) error {
		r.onLookup = hook
		return nil
	}
}

func WithLoadHook(hook LoadHook) Option {
	return func(r *Resolver) error {
		r.onLoad = hook
		return nil
	}
}

// Resolve finds the signature for a 24-bit message hash.
// The embedded table is tried first, the external table is only loaded on a miss.
// The load is attempted once per resolver: a table that is missing or unreadable
// at the first miss stays unavailable until the resolver is recreated,
// so placing the file next to a running encoder requires a restart.
func (r *Resolver) Resolve(hash uint32) ([4]byte, error) {
	if sig, ok := r.lookupEmbedded(hash); ok {
		r.observe(TierEmbedded, true)
		return sig, nil
	}
	r.observe(TierEmbedded, false)

	r.once.Do(r.load)

	if sig, ok := r.lookupExternal(hash); ok {
		r.observe(TierExternal, true)
		return sig, nil
	}
	r.observe(TierExternal, false)

	return [4]byte{}, ErrNotFound
}

// Loaded tells whether the external table has been read into memory
func (r *Resolver) Loaded() bool {
	return r.loaded.Load()
}

func (r *Resolver) lookupEmbedded(hash uint32) ([4]byte, bool) {
	for _, e := range r.embedded {
		if e.Hash != hash {
			continue
		}
		if e.Signature == 0 {
			return [4]byte{}, false
		}
		return [4]byte{
			byte(e.Signature >> 24),
			byte(e.Signature >> 16),
			byte(e.Signature >> 8),
			byte(e.Signature),
		}, true
	}
	return [4]byte{}, false
}

func (r *Resolver) lookupExternal(hash uint32) ([4]byte, bool) {
	var sig [4]byte
	if !r.loaded.Load() || hash >= TableEntries {
		return sig, false
	}
	offset := int(hash) * RecordLen
	if offset+RecordLen > len(r.table) {
		return sig, false
	}
	copy(sig[:], r.table[offset:offset+RecordLen])
	if sig == [4]byte{} {
		return sig, false
	}
	return sig, true
}

func (r *Resolver) load() {
	r.logger.Info().Str("path", r.path).Msg("Loading external signature table")

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("path", r.path).
			Msg("Unable to load external signature table, restart to retry")
		if r.onLoad != nil {
			r.onLoad(false, 0)
		}
		return
	}

	// trailing records beyond the hash space are ignored, short tables are accepted as is
	if len(data) > TableEntries*RecordLen {
		data = data[:TableEntries*RecordLen]
	}
	data = data[:len(data)-len(data)%RecordLen]

	r.table = data
	r.loaded.Store(true)

	records := countRecords(data)
	r.logger.Info().Int("records", records).Msg("Loaded external signature table")
	if r.onLoad != nil {
		r.onLoad(true, records)
	}
}

func (r *Resolver) observe(tier Tier, found bool) {
	if r.onLookup != nil {
		r.onLookup(tier, found)
	}
}

func countRecords(data []byte) int {
	cnt := 0
	for i := 0; i+RecordLen <= len(data); i += RecordLen {
		if data[i]|data[i+1]|data[i+2]|data[i+3] != 0 {
			cnt++
		}
	}
	return cnt
}
