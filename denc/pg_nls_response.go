// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package denc

// ListObject is one entry in a PG listing reply.
type ListObject struct {
	Nspace  string
	Oid     string
	Locator string
}

// PgNlsResponse is the wire reply to a PG listing request: the next
// cursor (itself an HObject) followed by the matched entries, per spec
// §4.6 "reply carries entries and next cursor".
type PgNlsResponse struct {
	Handle  HObject
	Entries []ListObject
}

const (
	pgNlsResponseVersion       = 1
	pgNlsResponseCompatVersion = 1
)

func (r PgNlsResponse) EncodingVersion() uint8 { return pgNlsResponseVersion }
func (r PgNlsResponse) CompatVersion() uint8   { return pgNlsResponseCompatVersion }

func (r PgNlsResponse) EncodeBody(b *Buffer) {
	r.Handle.EncodeBody(b)
	b.PutCount(len(r.Entries))
	for _, e := range r.Entries {
		b.PutString(e.Nspace)
		b.PutString(e.Oid)
		b.PutString(e.Locator)
	}
}

func (r *PgNlsResponse) DecodeBody(b *Buffer, version uint8) error {
	if err := r.Handle.DecodeBody(b, version); err != nil {
		return err
	}
	n, err := b.GetCount()
	if err != nil {
		return err
	}
	r.Entries = make([]ListObject, 0, n)
	for i := 0; i < n; i++ {
		var e ListObject
		if e.Nspace, err = b.GetString(); err != nil {
			return err
		}
		if e.Oid, err = b.GetString(); err != nil {
			return err
		}
		if e.Locator, err = b.GetString(); err != nil {
			return err
		}
		r.Entries = append(r.Entries, e)
	}
	return nil
}

// EncodePgNlsResponse encodes r as a full versioned envelope.
func EncodePgNlsResponse(r PgNlsResponse) []byte {
	b := NewEncoder(64 + 32*len(r.Entries))
	EncodeVersioned(b, &r)
	return b.Bytes()
}

// DecodePgNlsResponse decodes a versioned PgNlsResponse envelope.
func DecodePgNlsResponse(data []byte) (PgNlsResponse, error) {
	var r PgNlsResponse
	b := NewDecoder(data)
	if err := DecodeVersioned(b, &r); err != nil {
		return PgNlsResponse{}, err
	}
	return r, nil
}
