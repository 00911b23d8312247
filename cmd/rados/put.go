// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <object> <file|->",
		Short: "Write a file's contents to an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, src := args[0], args[1]

			var data []byte
			var err error
			if src == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(src)
			}
			if err != nil {
				return errors.Wrapf(err, "rados: reading %s", src)
			}

			sess, err := openSession(context.Background())
			if err != nil {
				return err
			}
			defer sess.Close()

			_, err = sess.ioctx.WriteFull(context.Background(), oid, data)
			return err
		},
	}
}
