// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/clock"
)

// run is the worker goroutine. It owns no I/O: each wake it takes the
// queued requests and hands them to the pools.
func (f *FileIO) run(ticker *clock.Ticker) {
	defer close(f.workerDone)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			f.drain()
			return
		case <-f.wake:
		case <-ticker.C:
		}
		f.drain()
	}
}

// drain dispatches everything queued. Each load is matched against
// the in-flight stores under the same lock that took it off the
// queue, so a store enqueued before the load is always found.
func (f *FileIO) drain() {
	type pairedLoad struct {
		request *LoadRequest
		store   *StoreRequest
	}

	f.mu.Lock()
	loads := make([]pairedLoad, len(f.loads))
	for i, request := range f.loads {
		loads[i] = pairedLoad{request: request, store: f.inFlight[request.Key.Key]}
	}
	stores := f.stores
	f.loads, f.stores = nil, nil
	f.mu.Unlock()

	if len(loads) == 0 && len(stores) == 0 {
		return
	}
	f.metrics.RecordQueueDepth(len(loads), len(stores))

	for _, load := range loads {
		if load.store != nil {
			f.dispatchInFlightLoad(load.request, load.store)
		} else {
			f.dispatchDiskLoad(load.request)
		}
	}
	for _, store := range stores {
		f.dispatchStore(store)
	}
}

// dispatchInFlightLoad answers request from store's in-memory payload
// without touching the disk.
func (f *FileIO) dispatchInFlightLoad(request *LoadRequest, store *StoreRequest) {
	started := f.clock.Now()
	payload := store.Data()
	if f.codec == nil || request.Key.IsMeta() {
		f.finishLoad(request, SourceInFlight, payload, nil, nil, started)
		return
	}
	f.decodePool.submit(func() {
		asset, err := f.callCodec(assetkey.ErrDecode, func() (any, error) {
			return f.codec.LoadFromStore(request.Key, store)
		})
		f.finishLoad(request, SourceInFlight, payload, asset, err, started)
	})
}

func (f *FileIO) dispatchDiskLoad(request *LoadRequest) {
	started := f.clock.Now()
	f.ioPool.submit(func() {
		data, err := f.readFile(request.Key.Key)
		if err != nil || f.codec == nil || request.Key.IsMeta() {
			f.finishLoad(request, SourceDisk, data, nil, err, started)
			return
		}
		f.decodePool.submit(func() {
			asset, err := f.callCodec(assetkey.ErrDecode, func() (any, error) {
				return f.codec.Decode(request.Key, data)
			})
			f.finishLoad(request, SourceDisk, data, asset, err, started)
		})
	})
}

// dispatchStore writes request on the I/O pool, encoding it first on
// the decode pool when it carries a value.
func (f *FileIO) dispatchStore(request *StoreRequest) {
	started := f.clock.Now()
	if request.IsRaw() {
		f.ioPool.submit(func() { f.write(request, request.Data(), started) })
		return
	}
	f.decodePool.submit(func() {
		data, err := f.encode(request)
		if err != nil {
			f.finishStore(request, 0, CompressionNone, fmt.Errorf("storing %s: %w", request.Key.Key, err), started)
			return
		}
		f.ioPool.submit(func() { f.write(request, data, started) })
	})
}

func (f *FileIO) write(request *StoreRequest, data []byte, started time.Time) {
	written, tag, err := f.writeFile(request.Key.Key, data)
	f.finishStore(request, written, tag, err, started)
}

func (f *FileIO) encode(request *StoreRequest) ([]byte, error) {
	encoded, err := f.callCodec(assetkey.ErrEncode, func() (any, error) {
		return f.codec.Encode(request.Key, request.Value())
	})
	if err != nil {
		return nil, err
	}
	data, ok := encoded.([]byte)
	if !ok || data == nil {
		return nil, fmt.Errorf("%w: codec returned no bytes for %T", assetkey.ErrEncode, request.Value())
	}
	return data, nil
}

// callCodec runs one codec call. A panic becomes an error wrapping
// class, as does an error the codec returned without classifying it.
func (f *FileIO) callCodec(class error, call func() (any, error)) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = fmt.Errorf("%w: codec panic: %v", class, recovered)
		}
	}()
	result, err = call()
	if err != nil && !isClassified(err) {
		err = fmt.Errorf("%w: %w", class, err)
	}
	return result, err
}

func isClassified(err error) bool {
	for _, class := range []error{
		assetkey.ErrNotFound,
		assetkey.ErrDecode,
		assetkey.ErrEncode,
		assetkey.ErrNotImplemented,
		assetkey.ErrIO,
	} {
		if errors.Is(err, class) {
			return true
		}
	}
	return false
}

func (f *FileIO) finishLoad(request *LoadRequest, source string, payload []byte, asset any, err error, started time.Time) {
	f.metrics.ObserveLoad(request.Key.Category, source, len(payload), f.clock.Now().Sub(started), err)
	if err != nil {
		request.fail(err)
		if errors.Is(err, assetkey.ErrNotFound) {
			f.logger.Warn("asset load missed", "key", request.Key.Key.String())
		} else {
			f.logger.Error("asset load failed", "key", request.Key.Key.String(), "source", source, "error", err)
		}
		return
	}
	request.succeed(payload, asset)
}

// finishStore retires request from the in-flight map (unless a newer
// store for the key replaced it) and then completes it.
func (f *FileIO) finishStore(request *StoreRequest, written int, tag CompressionTag, err error, started time.Time) {
	f.mu.Lock()
	if f.inFlight[request.Key.Key] == request {
		delete(f.inFlight, request.Key.Key)
	}
	// Recorded under the lock so the gauge follows map order.
	f.metrics.RecordInFlightStores(len(f.inFlight))
	f.mu.Unlock()

	f.metrics.ObserveStore(request.Key.Category, tag, written, f.clock.Now().Sub(started), err)
	if err != nil {
		request.fail(err)
		f.logger.Error("asset store failed", "key", request.Key.Key.String(), "error", err)
		return
	}
	request.succeed()
}
