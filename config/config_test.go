// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
)

const sampleConf = `
; a comment
[global]
mon_host = v2:10.0.0.1:3300, v2:10.0.0.2:3300
auth_cluster_required = cephx
auth_client_required = cephx

[client]
keyring = /etc/ceph/ceph.client.admin.keyring

[client.admin]
ms_dispatch_throttle_bytes = 64M
`

func TestParseRecognizesGlobalAndSectionOptions(t *testing.T) {
	name := cephx.EntityName{Type: "client", ID: "admin"}
	cfg, err := Parse(strings.NewReader(sampleConf), name)
	require.NoError(t, err)

	require.Equal(t, name, cfg.ClientName)
	require.Equal(t, "/etc/ceph/ceph.client.admin.keyring", cfg.Keyring)
	require.EqualValues(t, 64<<20, cfg.MsDispatchThrottleBytes)
	require.Equal(t, "cephx", cfg.AuthRequire["auth_cluster_required"])
	require.Equal(t, "cephx", cfg.AuthRequire["auth_client_required"])

	require.Equal(t, []clustermap.Addr{
		{Type: clustermap.AddrMsgr2, Host: "10.0.0.1", Port: 3300},
		{Type: clustermap.AddrMsgr2, Host: "10.0.0.2", Port: 3300},
	}, cfg.MonHost)
}

func TestParseOtherSectionDoesNotLeak(t *testing.T) {
	name := cephx.EntityName{Type: "client", ID: "other"}
	cfg, err := Parse(strings.NewReader(sampleConf), name)
	require.NoError(t, err)

	// [client] still applies (keyring), but [client.admin]'s throttle
	// override should not, since this entity is client.other.
	require.Equal(t, "/etc/ceph/ceph.client.admin.keyring", cfg.Keyring)
	require.EqualValues(t, DefaultConfig().MsDispatchThrottleBytes, cfg.MsDispatchThrottleBytes)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("[global]\nnot a valid line\n"), cephx.EntityName{Type: "client", ID: "admin"})
	require.Error(t, err)
}

func TestParseRejectsUnterminatedSection(t *testing.T) {
	_, err := Parse(strings.NewReader("[global\nmon_host = v2:10.0.0.1:3300\n"), cephx.EntityName{Type: "client", ID: "admin"})
	require.Error(t, err)
}

func TestParseByteSizeSuffixes(t *testing.T) {
	cases := map[string]int64{
		"100":  100,
		"1K":   1 << 10,
		"4k":   1 << 12,
		"64M":  64 << 20,
		"1g":   1 << 30,
		" 2G ": 2 << 30,
	}
	for input, want := range cases {
		got, err := ParseByteSize(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
}

func TestParseByteSizeRejectsGarbage(t *testing.T) {
	_, err := ParseByteSize("not-a-number")
	require.Error(t, err)

	_, err = ParseByteSize("")
	require.Error(t, err)
}
