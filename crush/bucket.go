// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crush

import "math"

// chooseBucket selects one child of bucket for input x at attempt r,
// dispatching on the bucket's algorithm (spec §4.2 "Bucket child
// selection is algorithm-specific"). Returns false if the bucket is
// empty.
func chooseBucket(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	if bucket.Size == 0 {
		return 0, false
	}
	switch bucket.Alg {
	case AlgStraw2:
		return bucketStraw2Choose(bucket, x, r)
	case AlgUniform:
		return bucketUniformChoose(bucket, x, r)
	case AlgList:
		return bucketListChoose(bucket, x, r)
	case AlgTree:
		return bucketTreeChoose(bucket, x, r)
	case AlgStraw:
		return bucketStrawChoose(bucket, x, r)
	default:
		return 0, false
	}
}

// generateExponentialDistribution implements the straw2 draw: for a
// child with weight w > 0, draw ln(U)/w where U is a uniform 16-bit
// value from hash3(x, itemID, r); weight == 0 excludes the child by
// returning the minimum possible value (spec §4.2).
func generateExponentialDistribution(x uint32, itemID int32, r uint32, weight uint32) int64 {
	if weight == 0 {
		return math.MinInt64
	}
	u := Hash32_3(x, uint32(itemID), r) & 0xffff
	ln := int64(crushLn(u)) - (1 << 48)
	return ln / int64(weight)
}

func bucketStraw2Choose(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	weights := bucket.Data.Straw2ItemWeights
	if weights == nil {
		return 0, false
	}
	high := 0
	highDraw := int64(math.MinInt64)
	n := int(bucket.Size)
	if n > len(weights) {
		n = len(weights)
	}
	for i := 0; i < n; i++ {
		w := weights[i]
		var draw int64
		if w > 0 {
			draw = generateExponentialDistribution(x, bucket.Items[i], r, w)
		} else {
			draw = math.MinInt64
		}
		if i == 0 || draw > highDraw {
			high = i
			highDraw = draw
		}
	}
	return bucket.Items[high], true
}

func bucketUniformChoose(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	hash := Hash32_2(x, r)
	idx := hash % bucket.Size
	return bucket.Items[idx], true
}

func bucketListChoose(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	itemWeights := bucket.Data.ListItemWeights
	sumWeights := bucket.Data.ListSumWeights
	if itemWeights == nil || sumWeights == nil {
		return 0, false
	}
	for i := int(bucket.Size) - 1; i >= 0; i-- {
		w := uint64(Hash32_4(x, uint32(bucket.Items[i]), r, uint32(bucket.ID)))
		w &= 0xffff
		w = (w * uint64(sumWeights[i])) >> 16
		if w < uint64(itemWeights[i]) {
			return bucket.Items[i], true
		}
	}
	return bucket.Items[0], true
}

func bucketTreeChoose(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	nodeWeights := bucket.Data.TreeNodeWeights
	n := int(bucket.Size)
	for n > 1 {
		left := n >> 1
		right := n - left

		w := Hash32_4(x, uint32(n), r, uint32(bucket.ID))
		wl := uint64(w & 0xffff)
		wr := uint64(w >> 16)

		var leftWeight, rightWeight uint64
		if left < len(nodeWeights) {
			leftWeight = uint64(nodeWeights[left])
		}
		if right < len(nodeWeights) {
			rightWeight = uint64(nodeWeights[right])
		}

		if wl*(leftWeight+rightWeight) < wr*leftWeight {
			n = left
		} else {
			n = right
		}
	}
	idx := n >> 1
	if n > 0 && idx < len(bucket.Items) {
		return bucket.Items[idx], true
	}
	return bucket.Items[0], true
}

func bucketStrawChoose(bucket *Bucket, x uint32, r uint32) (int32, bool) {
	straws := bucket.Data.StrawStraws
	if straws == nil {
		return 0, false
	}
	high := 0
	var highDraw uint64
	n := int(bucket.Size)
	if n > len(straws) {
		n = len(straws)
	}
	for i := 0; i < n; i++ {
		draw := uint64(Hash32_3(x, uint32(bucket.Items[i]), r))
		draw &= 0xffff
		draw *= uint64(straws[i])
		if i == 0 || draw > highDraw {
			high = i
			highDraw = draw
		}
	}
	return bucket.Items[high], true
}
