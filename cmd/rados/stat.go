// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <object>",
		Short: "Print an object's size and modification time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid := args[0]

			sess, err := openSession(context.Background())
			if err != nil {
				return err
			}
			defer sess.Close()

			res, err := sess.ioctx.Stat(context.Background(), oid)
			if err != nil {
				return err
			}

			poolName, err := sess.ioctx.PoolName()
			if err != nil {
				return err
			}
			fmt.Printf("%s/%s mtime %s, size %d\n", poolName, oid, res.Mtime.Format("2006-01-02 15:04:05"), res.Size)
			return nil
		},
	}
}
