// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/clock"
)

// Defaults applied to zero-valued FileIOConfig fields.
const (
	DefaultWakeInterval = 500 * time.Millisecond
	DefaultIOWorkers    = 4
)

// metaSuffix is appended to the id of sidecar metadata files.
const metaSuffix = ".meta"

// FileIOConfig holds the parameters for [NewFileIO]. Root, Clock, and
// Logger are required.
type FileIOConfig struct {
	// Root is the cache directory. Created if missing, along with one
	// sub-directory per category.
	Root string

	// Codec decodes loaded payloads and encodes value stores. Nil
	// leaves loads raw (Asset returns nil) and rejects value stores.
	Codec Codec

	// Compression is applied to every payload written. Zero value is
	// CompressionNone; CompressionAuto selects per payload.
	Compression CompressionTag

	// WakeInterval is the worker's idle poll period. Enqueue calls
	// wake it immediately, so this only bounds how long a missed
	// signal can delay work. Default DefaultWakeInterval.
	WakeInterval time.Duration

	// IOWorkers bounds concurrent file reads and writes. Default
	// DefaultIOWorkers.
	IOWorkers int

	// DecodeWorkers bounds concurrent codec calls. Default
	// GOMAXPROCS.
	DecodeWorkers int

	// Clock drives the wake ticker and load/store timings.
	Clock clock.Clock

	// Logger receives request failures. Failures are also reported
	// on the request itself.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics Metrics
}

// FileIO is the filesystem [IO]. Safe for concurrent use. Call Close
// to stop the worker.
type FileIO struct {
	root        string
	codec       Codec
	compression CompressionTag
	clock       clock.Clock
	logger      *slog.Logger
	metrics     Metrics

	mu       sync.Mutex
	loads    []*LoadRequest
	stores   []*StoreRequest
	inFlight map[assetkey.Key]*StoreRequest
	closed   bool

	wake       chan struct{}
	stop       chan struct{}
	workerDone chan struct{}
	closeOnce  sync.Once

	tasks      sync.WaitGroup
	ioPool     *pool
	decodePool *pool
}

var _ IO = (*FileIO)(nil)

// NewFileIO creates the category directories under config.Root and
// starts the worker goroutine.
func NewFileIO(config FileIOConfig) (*FileIO, error) {
	if config.Root == "" {
		return nil, fmt.Errorf("file io: Root is required")
	}
	if config.Clock == nil {
		return nil, fmt.Errorf("file io: Clock is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("file io: Logger is required")
	}
	if config.Compression != CompressionAuto && config.Compression > CompressionBG4LZ4 {
		return nil, fmt.Errorf("file io: unsupported compression %s", config.Compression)
	}
	if config.WakeInterval <= 0 {
		config.WakeInterval = DefaultWakeInterval
	}
	if config.IOWorkers <= 0 {
		config.IOWorkers = DefaultIOWorkers
	}
	if config.DecodeWorkers <= 0 {
		config.DecodeWorkers = runtime.GOMAXPROCS(0)
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}

	for _, category := range assetkey.Categories {
		directory := filepath.Join(config.Root, category.String())
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, fmt.Errorf("file io: creating %s: %w: %w", directory, assetkey.ErrIO, err)
		}
	}

	f := &FileIO{
		root:        config.Root,
		codec:       config.Codec,
		compression: config.Compression,
		clock:       config.Clock,
		logger:      config.Logger,
		metrics:     config.Metrics,
		inFlight:    make(map[assetkey.Key]*StoreRequest),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		workerDone:  make(chan struct{}),
	}
	f.ioPool = newPool(config.IOWorkers, &f.tasks)
	f.decodePool = newPool(config.DecodeWorkers, &f.tasks)

	go f.run(f.clock.NewTicker(config.WakeInterval))
	return f, nil
}

// Root returns the cache directory.
func (f *FileIO) Root() string {
	return f.root
}

// Path returns the file that holds key.
func (f *FileIO) Path(key assetkey.Key) string {
	name := key.ID.String()
	if key.IsMeta() {
		name += metaSuffix
	}
	return filepath.Join(f.root, key.Category.String(), name)
}

// EnqueueLoad implements [IO]. After Close the request fails with
// ErrClosed.
func (f *FileIO) EnqueueLoad(request *LoadRequest) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		request.fail(fmt.Errorf("loading %s: %w", request.Key.Key, ErrClosed))
		return
	}
	f.loads = append(f.loads, request)
	f.mu.Unlock()
	f.signal()
}

// Store implements [IO]. The request is registered as in flight
// before Store returns, replacing any earlier in-flight store for the
// same key. Value stores require a codec and a primary key; other
// combinations fail immediately with assetkey.ErrEncode.
func (f *FileIO) Store(request *StoreRequest) {
	if !request.IsRaw() && (f.codec == nil || request.Key.IsMeta()) {
		request.fail(fmt.Errorf("storing %s: %w: no encoder for in-memory value", request.Key.Key, assetkey.ErrEncode))
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		request.fail(fmt.Errorf("storing %s: %w", request.Key.Key, ErrClosed))
		return
	}
	f.stores = append(f.stores, request)
	f.inFlight[request.Key.Key] = request
	f.metrics.RecordInFlightStores(len(f.inFlight))
	f.mu.Unlock()

	f.signal()
}

// LoadImmediate implements [IO]. A raw store still in flight answers
// with its bytes; a value store is encoded on the spot.
func (f *FileIO) LoadImmediate(info assetkey.Info) ([]byte, error) {
	if store := f.inFlightStore(info.Key); store != nil {
		if store.IsRaw() {
			return store.Data(), nil
		}
		data, err := f.encode(store)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", info.Key, err)
		}
		return data, nil
	}
	return f.readFile(info.Key)
}

// HasAsset implements [IO].
func (f *FileIO) HasAsset(info assetkey.Info) bool {
	if f.inFlightStore(info.Key) != nil {
		return true
	}
	_, err := os.Stat(f.Path(info.Key))
	return err == nil
}

// Close stops accepting requests, lets the worker drain both queues
// one last time, and waits for every read, write, and decode to
// finish. Safe to call more than once.
func (f *FileIO) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.stop)
		<-f.workerDone
		f.tasks.Wait()
	})
	return nil
}

// signal wakes the worker without blocking. A wake already pending
// covers this one.
func (f *FileIO) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *FileIO) inFlightStore(key assetkey.Key) *StoreRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight[key]
}

// readFile reads and unframes the payload for key. A missing file
// fails with assetkey.ErrNotFound, other filesystem errors with
// assetkey.ErrIO, and a corrupt frame with assetkey.ErrDecode.
func (f *FileIO) readFile(key assetkey.Key) ([]byte, error) {
	frame, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", key, assetkey.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", key, assetkey.ErrIO, err)
	}
	data, err := decodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w: %w", key, assetkey.ErrDecode, err)
	}
	return data, nil
}

// writeFile frames data and writes it through a temporary file in the
// target directory, renamed into place so readers never see a partial
// payload. Returns the number of bytes written and the tag used.
func (f *FileIO) writeFile(key assetkey.Key, data []byte) (int, CompressionTag, error) {
	tag := f.compression
	if tag == CompressionAuto {
		tag = SelectCompression(key.Category, data)
	}
	frame, tag, err := encodeFrame(data, tag)
	if err != nil {
		return 0, tag, fmt.Errorf("storing %s: %w", key, err)
	}

	target := f.Path(key)
	temporary, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return 0, tag, fmt.Errorf("storing %s: %w: %w", key, assetkey.ErrIO, err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(frame); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return 0, tag, fmt.Errorf("storing %s: %w: %w", key, assetkey.ErrIO, err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return 0, tag, fmt.Errorf("storing %s: %w: %w", key, assetkey.ErrIO, err)
	}
	if err := os.Rename(temporaryPath, target); err != nil {
		os.Remove(temporaryPath)
		return 0, tag, fmt.Errorf("storing %s: %w: %w", key, assetkey.ErrIO, err)
	}
	return len(frame), tag, nil
}
