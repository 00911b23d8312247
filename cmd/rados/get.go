// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <object> <file|->",
		Short: "Read an object's contents into a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, dst := args[0], args[1]

			sess, err := openSession(context.Background())
			if err != nil {
				return err
			}
			defer sess.Close()

			res, err := sess.ioctx.Read(context.Background(), oid, 0, 0)
			if err != nil {
				return err
			}

			if dst == "-" {
				_, err = os.Stdout.Write(res.Data)
				return err
			}
			if err := os.WriteFile(dst, res.Data, 0o644); err != nil {
				return errors.Wrapf(err, "rados: writing %s", dst)
			}
			return nil
		},
	}
}
