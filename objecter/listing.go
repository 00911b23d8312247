// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package objecter

import "context"

// MaxEntriesPerRequest bounds how many object names Ls requests per
// round trip while aggregating a full pool listing, matching the
// reference client's MAX_ENTRIES_PER_REQUEST (osdclient/src/ioctx.rs).
const MaxEntriesPerRequest = 100

// Ls lists every object in the pool, paging through ListObjects in
// ascending per-PG seed order and concatenating results until the
// cursor reports end-of-listing (spec §4.6 "'list all' concatenates").
func (c *IoCtx) Ls(ctx context.Context) ([]string, error) {
	var all []string
	var cursor *ListCursor

	for {
		objects, next, err := c.ListObjects(ctx, cursor, MaxEntriesPerRequest)
		if err != nil {
			return nil, err
		}
		all = append(all, objects...)

		if next == nil {
			return all, nil
		}
		cursor = next
	}
}
