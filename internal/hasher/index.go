package hasher

// Index is the cascade hash index of one image's descriptors.
// It is immutable once built.
type Index struct {
	n        int
	groups   int
	buckets  int
	words    int
	codeBits int

	// codes holds n fingerprints of words uint64 each.
	codes []uint64
	// bucketIDs holds n × groups primary bucket ids.
	bucketIDs []uint16
	// offsets holds, per group, buckets+1 prefix offsets into members.
	offsets []int32
	// members holds, per group, the n descriptor ids ordered by bucket, then id.
	members []int32
}

// Len returns the number of indexed descriptors.
func (x *Index) Len() int { return x.n }

// Groups returns the number of primary hash groups.
func (x *Index) Groups() int { return x.groups }

// Code returns the fingerprint of descriptor i.
func (x *Index) Code(i int) []uint64 {
	return x.codes[i*x.words : (i+1)*x.words]
}

// BucketID returns the bucket of descriptor i in group g.
func (x *Index) BucketID(i, g int) uint16 {
	return x.bucketIDs[i*x.groups+g]
}

// Bucket returns the ids of the descriptors in bucket b of group g,
// in ascending order.
func (x *Index) Bucket(g int, b uint16) []int32 {
	off := x.offsets[g*(x.buckets+1):]
	return x.members[g*x.n+int(off[b]) : g*x.n+int(off[int(b)+1])]
}

// SizeBytes returns the memory held by the index.
func (x *Index) SizeBytes() int64 {
	return int64(len(x.codes))*8 +
		int64(len(x.bucketIDs))*2 +
		int64(len(x.offsets))*4 +
		int64(len(x.members))*4
}

func (x *Index) compatible(o *Index) bool {
	return x.groups == o.groups && x.buckets == o.buckets && x.words == o.words && x.codeBits == o.codeBits
}

// buildBuckets fills offsets and members from bucketIDs with a counting sort,
// so members of a bucket keep ascending descriptor order.
func (x *Index) buildBuckets() {
	stride := x.buckets + 1
	x.offsets = make([]int32, x.groups*stride)
	x.members = make([]int32, x.groups*x.n)

	for g := range x.groups {
		off := x.offsets[g*stride : (g+1)*stride]
		for i := range x.n {
			off[int(x.BucketID(i, g))+1]++
		}
		for b := 1; b < stride; b++ {
			off[b] += off[b-1]
		}

		next := make([]int32, x.buckets)
		copy(next, off[:x.buckets])
		members := x.members[g*x.n : (g+1)*x.n]
		for i := range x.n {
			b := x.BucketID(i, g)
			members[next[b]] = int32(i)
			next[b]++
		}
	}
}
