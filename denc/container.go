// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package denc

// PutOptionalString writes the 1-byte present flag then the string if set.
func (b *Buffer) PutOptionalString(s *string) {
	if s == nil {
		b.PutBool(false)
		return
	}
	b.PutBool(true)
	b.PutString(*s)
}

func (b *Buffer) GetOptionalString() (*string, error) {
	present, err := b.GetBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	s, err := b.GetString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PutStringSlice writes a 4-byte count then each string in order.
func (b *Buffer) PutStringSlice(ss []string) {
	b.PutCount(len(ss))
	for _, s := range ss {
		b.PutString(s)
	}
}

func (b *Buffer) GetStringSlice() ([]string, error) {
	n, err := b.GetCount()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := b.GetString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// PutU32Slice writes a 4-byte count then each uint32 in order.
func (b *Buffer) PutU32Slice(vs []uint32) {
	b.PutCount(len(vs))
	for _, v := range vs {
		b.PutU32(v)
	}
}

func (b *Buffer) GetU32Slice() ([]uint32, error) {
	n, err := b.GetCount()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		v, err := b.GetU32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// PutBytes writes a 4-byte length prefix then the raw bytes (used for
// opaque blobs such as ticket data, distinct from PutString only in
// naming — same wire layout).
func (b *Buffer) PutBytes(p []byte) {
	b.PutU32(uint32(len(p)))
	b.data = append(b.data, p...)
}

func (b *Buffer) GetBytes() ([]byte, error) {
	n, err := b.GetU32()
	if err != nil {
		return nil, err
	}
	return b.GetRaw(int(n))
}
