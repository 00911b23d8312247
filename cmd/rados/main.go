// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command rados is a CLI front end over the object client: put, get,
// stat, rm, and ls against one pool (spec §6 "Command surface").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are read by every subcommand's RunE via rootCmd's
// persistent flag set, mirroring how the reference rados tool takes
// -c/-n/-p ahead of its subcommand.
type globalFlags struct {
	confPath    string
	name        string
	pool        string
	metricsAddr string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "rados",
	Short: "Command-line RADOS client",
	Long: `rados talks to a Ceph-family monitor cluster and object-storage
daemons directly, without a running cluster's own tools: it hunts a
monitor, subscribes to the osdmap, and drives put/get/stat/rm/ls
against one pool.`,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&flags.confPath, "conf", "c", "/etc/ceph/ceph.conf", "path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&flags.name, "name", "n", "client.admin", "client entity name")
	rootCmd.PersistentFlags().StringVarP(&flags.pool, "pool", "p", "", "pool name or numeric id (required)")
	rootCmd.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve monitor/object-client prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(
		putCmd(),
		getCmd(),
		statCmd(),
		rmCmd(),
		lsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rados:", err)
		os.Exit(exitCodeFor(err))
	}
}
