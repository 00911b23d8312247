// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tchaikov/ceph-sub002/objecter"
)

func lsCmd() *cobra.Command {
	var maxEntries uint32

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the pool's objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(context.Background())
			if err != nil {
				return err
			}
			defer sess.Close()

			var cursor *objecter.ListCursor
			for {
				entries, next, err := sess.ioctx.ListObjects(context.Background(), cursor, maxEntries)
				if err != nil {
					return err
				}
				for _, oid := range entries {
					fmt.Println(oid)
				}
				if next == nil {
					return nil
				}
				cursor = next
			}
		},
	}

	cmd.Flags().Uint32Var(&maxEntries, "max", 1000, "maximum entries to request per listing round-trip")
	return cmd
}
