// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import (
	"context"
	"sync"
	"time"
)

// IoCtx is a per-pool facade over Objecter, grounded on
// osdclient/src/ioctx.rs's IoCtx: the pool id plus a cached pool name,
// with one method per operation in the catalogue (spec §4.6).
type IoCtx struct {
	obj    *Objecter
	poolID int64

	mu       sync.Mutex
	poolName string

	pendingMu     sync.Mutex
	pendingWrites int
}

// NewIoCtx returns an IoCtx bound to poolID. Unlike the reference's
// async constructor, pool metadata is resolved lazily on first use
// rather than eagerly fetched, since the cluster map may not have
// arrived yet when callers want to construct their IoCtx.
func (o *Objecter) NewIoCtx(poolID int64) *IoCtx {
	return &IoCtx{obj: o, poolID: poolID}
}

// PoolID returns the bound pool id.
func (c *IoCtx) PoolID() int64 { return c.poolID }

// PoolName resolves and caches the pool's human name from the current
// cluster map.
func (c *IoCtx) PoolName() (string, error) {
	c.mu.Lock()
	if c.poolName != "" {
		name := c.poolName
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	m, ok := c.obj.notifier.GetLatest()
	if !ok {
		return "", newErr(KindPlacement, "no cluster map available yet")
	}
	pool, err := m.PoolByID(c.poolID)
	if err != nil {
		return "", wrapErr(KindPlacement, err, "resolving pool %d", c.poolID)
	}

	c.mu.Lock()
	c.poolName = pool.Name
	c.mu.Unlock()
	return pool.Name, nil
}

// Create makes oid exist with empty contents. exclusive is accepted
// for interface parity with the reference client but is not enforced
// at this layer: the operation catalogue has no exists-check sub-op,
// the same limitation the reference's own Create notes ("If
// exclusive, we could add a precondition check").
func (c *IoCtx) Create(ctx context.Context, oid string, exclusive bool) error {
	_, err := c.WriteFull(ctx, oid, nil)
	return err
}

// WriteFull replaces oid's entire contents with data.
func (c *IoCtx) WriteFull(ctx context.Context, oid string, data []byte) (WriteResult, error) {
	c.beginWrite()
	defer c.endWrite()

	reply, err := c.obj.Do(ctx, c.poolID, oid, []OSDOp{WriteFullOp(data)}, 0, nil)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Version: reply.Version}, nil
}

// Read returns up to length bytes of oid starting at offset. length 0
// means read to the end of the object.
func (c *IoCtx) Read(ctx context.Context, oid string, offset, length uint64) (ReadResult, error) {
	reply, err := c.obj.Do(ctx, c.poolID, oid, []OSDOp{ReadOp(offset, length)}, 0, nil)
	if err != nil {
		return ReadResult{}, err
	}
	if len(reply.Results) == 0 {
		return ReadResult{}, newErr(KindCodec, "read reply for %q carried no results", oid)
	}
	return ReadResult{Data: reply.Results[0].Data, Version: reply.Version}, nil
}

// SparseRead returns the data-bearing extents of oid within
// [offset, offset+length), along with their packed data.
func (c *IoCtx) SparseRead(ctx context.Context, oid string, offset, length uint64) (SparseReadResult, error) {
	reply, err := c.obj.Do(ctx, c.poolID, oid, []OSDOp{SparseReadOp(offset, length)}, 0, nil)
	if err != nil {
		return SparseReadResult{}, err
	}
	if len(reply.Results) == 0 {
		return SparseReadResult{}, newErr(KindCodec, "sparse-read reply for %q carried no results", oid)
	}
	r := reply.Results[0]
	return SparseReadResult{Extents: r.Extents, Data: r.Data, Version: reply.Version}, nil
}

// Stat returns oid's size and modification time.
func (c *IoCtx) Stat(ctx context.Context, oid string) (StatResult, error) {
	reply, err := c.obj.Do(ctx, c.poolID, oid, []OSDOp{StatOp()}, 0, nil)
	if err != nil {
		return StatResult{}, err
	}
	if len(reply.Results) == 0 {
		return StatResult{}, newErr(KindCodec, "stat reply for %q carried no results", oid)
	}
	return DecodeStatResult(reply.Results[0].Data)
}

// Remove deletes oid.
func (c *IoCtx) Remove(ctx context.Context, oid string) error {
	_, err := c.obj.Do(ctx, c.poolID, oid, []OSDOp{DeleteOp()}, 0, nil)
	return err
}

// ListObjects returns up to maxEntries object names starting from
// cursor (nil starts from the beginning of the pool's placement
// groups), and the cursor to resume from, or nil if the listing has
// reached the end (spec §4.6 "Listings are per-PG; a sentinel cursor
// marks PG end").
func (c *IoCtx) ListObjects(ctx context.Context, cursor *ListCursor, maxEntries uint32) ([]string, *ListCursor, error) {
	start := ListCursor{}
	if cursor != nil {
		start = *cursor
	}

	reply, err := c.obj.Do(ctx, c.poolID, "", []OSDOp{ListPGOp(start, maxEntries)}, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	if len(reply.Results) == 0 {
		return nil, nil, newErr(KindCodec, "list reply for pool %d carried no results", c.poolID)
	}

	r := reply.Results[0]
	if r.Cursor.End {
		return r.Entries, nil, nil
	}
	next := r.Cursor
	return r.Entries, &next, nil
}

func (c *IoCtx) beginWrite() {
	c.pendingMu.Lock()
	c.pendingWrites++
	c.pendingMu.Unlock()
}

func (c *IoCtx) endWrite() {
	c.pendingMu.Lock()
	c.pendingWrites--
	c.pendingMu.Unlock()
}

// PendingWriteCount reports how many WriteFull calls are currently
// in flight on this IoCtx.
func (c *IoCtx) PendingWriteCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return c.pendingWrites
}

// Flush blocks until every write issued through this IoCtx has been
// acknowledged. Since WriteFull already waits for its reply before
// returning, there is never outstanding work by the time Flush is
// called concurrently with no in-flight writers; it exists for
// interface parity with the reference client's aio-style flush.
func (c *IoCtx) Flush(ctx context.Context) error {
	for {
		if c.PendingWriteCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
