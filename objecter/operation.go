// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

// ReadOpBuilder accumulates sub-ops for a read-style request, mirroring
// the reference client's typed operation builders (grounded on
// osdclient/src/operation.rs's ReadOp/WriteOp/StatOp).
type ReadOpBuilder struct {
	ops []OSDOp
}

func NewReadOp() *ReadOpBuilder { return &ReadOpBuilder{} }

func (r *ReadOpBuilder) Read(offset, length uint64) *ReadOpBuilder {
	r.ops = append(r.ops, ReadOp(offset, length))
	return r
}

func (r *ReadOpBuilder) SparseRead(offset, length uint64) *ReadOpBuilder {
	r.ops = append(r.ops, SparseReadOp(offset, length))
	return r
}

func (r *ReadOpBuilder) Stat() *ReadOpBuilder {
	r.ops = append(r.ops, StatOp())
	return r
}

func (r *ReadOpBuilder) Build() []OSDOp { return r.ops }

// WriteOpBuilder accumulates sub-ops for a write-style request.
type WriteOpBuilder struct {
	ops []OSDOp
}

func NewWriteOp() *WriteOpBuilder { return &WriteOpBuilder{} }

func (w *WriteOpBuilder) WriteFull(data []byte) *WriteOpBuilder {
	w.ops = append(w.ops, WriteFullOp(data))
	return w
}

func (w *WriteOpBuilder) Delete() *WriteOpBuilder {
	w.ops = append(w.ops, DeleteOp())
	return w
}

func (w *WriteOpBuilder) Build() []OSDOp { return w.ops }
