// Package refptr implements ownership-tracking pointers with explicit,
// reference-counted lifetimes: Shared (multi-owner), Weak (non-owning
// observer) and Unique (sole owner), all over a small control-block core.
//
// The counts are plain integers. Mutating one control block from multiple
// goroutines without external synchronization is a caller error; nothing in
// this package locks, blocks or yields. Reference cycles between Shared
// pointers leak, as in any counted scheme without a tracing collector.
//
// Dereferencing a null pointer is not checked: Get returns nil and the
// resulting panic is the caller's. The package trades checks for zero
// overhead throughout.
package refptr
