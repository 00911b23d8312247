// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapEncodeDecodeRoundTrip(t *testing.T) {
	m := NewMap()
	m.MaxBuckets = 4
	m.MaxDevices = 8
	m.MaxRules = 1
	m.Names[0] = "osd.0"
	m.Names[1] = "osd.1"
	m.TypeNames[0] = "osd"
	m.TypeNames[1] = "host"
	m.RuleNames[0] = "replicated_rule"

	m.PutBucket(&Bucket{
		ID:         -1,
		BucketType: 1,
		Alg:        AlgStraw2,
		Hash:       0,
		Weight:     0x20000,
		Size:       2,
		Items:      []int32{0, 1},
		Data:       BucketData{Straw2ItemWeights: []uint32{0x10000, 0x10000}},
	})
	m.PutRule(&Rule{
		RuleID:   0,
		RuleType: RuleReplicated,
		Steps: []RuleStep{
			{Op: OpTake, Arg1: -1},
			{Op: OpChooseLeafFirstN, Arg1: 0, Arg2: 1},
			{Op: OpEmit},
		},
	})

	data := m.Encode()
	decoded, err := DecodeMap(data)
	require.NoError(t, err)

	require.Equal(t, m.MaxBuckets, decoded.MaxBuckets)
	require.Equal(t, m.MaxDevices, decoded.MaxDevices)
	require.Equal(t, m.MaxRules, decoded.MaxRules)
	require.Equal(t, m.Names, decoded.Names)
	require.Equal(t, m.TypeNames, decoded.TypeNames)
	require.Equal(t, m.RuleNames, decoded.RuleNames)
	require.Equal(t, m.Tunables, decoded.Tunables)

	bucket, err := decoded.Bucket(-1)
	require.NoError(t, err)
	require.Equal(t, AlgStraw2, bucket.Alg)
	require.Equal(t, []int32{0, 1}, bucket.Items)
	require.Equal(t, []uint32{0x10000, 0x10000}, bucket.Data.Straw2ItemWeights)

	rule, err := decoded.Rule(0)
	require.NoError(t, err)
	require.Len(t, rule.Steps, 3)
	require.Equal(t, OpChooseLeafFirstN, rule.Steps[1].Op)
}

func TestMapEncodeDecodeEmpty(t *testing.T) {
	m := NewMap()
	decoded, err := DecodeMap(m.Encode())
	require.NoError(t, err)
	require.Equal(t, DefaultTunables(), decoded.Tunables)
	require.Empty(t, decoded.Buckets)
	require.Empty(t, decoded.Rules)
}
