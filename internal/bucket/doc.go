// Package bucket implements the inverted-bucket index of spec.md §3 and
// §4.2: a fixed [channel=3][sign=2][magnitude=16384] array of buckets, each
// holding the images whose signature contains that (channel, sign,
// magnitude) coefficient.
//
// Two concrete bucket-set implementations share no interface and use
// fundamentally different storage, per the design notes in spec.md §9
// ("avoid attempting a single generic type"):
//
//   - Mutable: used by normal/alter modes. Buckets store image IDs so that
//     removal does not require a catalog walk. New entries accumulate in an
//     in-memory tail and page out to a shared scratch file once the tail
//     reaches MutableFlushThreshold entries.
//   - ReadOnly: used by simple (read-only) mode. Buckets store catalog
//     indices, which are assigned monotonically, so contents compress well
//     with the delta-packed encoding in internal/deltaqueue. Buckets are
//     rebuilt at load time into delta-encoded bytes held on the Go heap;
//     LoadFrozen and SetMappedRegion can install an mmap window, but the
//     loaders do not use them.
package bucket
