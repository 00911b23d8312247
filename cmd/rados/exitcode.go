// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"

	"github.com/tchaikov/ceph-sub002/objecter"
)

// Negative-errno values the OSD returns in MOSDOpReply.RetVal for the
// failure modes the CLI distinguishes (spec §6 "distinct codes for
// not-found and permission-denied if desired").
const (
	errnoENOENT = -2
	errnoEACCES = -13
)

// exitCodeFor maps a command's terminal error to a process exit code:
// 0 is never reached here (success returns before this runs), 1 is
// the generic fallback, and not-found/permission-denied get their own
// codes so scripts can tell them apart without parsing text.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var opErr *objecter.Error
	if errors.As(err, &opErr) && opErr.Kind == objecter.KindOperation {
		switch opErr.RetVal {
		case errnoENOENT:
			return 2
		case errnoEACCES:
			return 3
		}
	}
	return 1
}
