// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"

	"github.com/spf13/cobra"
)

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <object>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid := args[0]

			sess, err := openSession(context.Background())
			if err != nil {
				return err
			}
			defer sess.Close()

			return sess.ioctx.Remove(context.Background(), oid)
		},
	}
}
