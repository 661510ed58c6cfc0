package refptr

// lifecycle is the single polymorphic point of a control block: how the
// pointee is destroyed once the last strong reference is gone. It is
// selected when the block is created and fixed for the block's lifetime.
type lifecycle interface {
	destroyTarget()
}

// controlBlock tracks the strong and weak reference counts for one managed
// object. Counts are plain integers per the single-threaded contract.
//
// The protocol is two-phase: removeStrong destroys the pointee when the
// strong count reaches zero, while the block itself stays valid for weak
// observers; whichever remove operation sees both counts at zero reports
// true, telling the caller to drop its block reference, which is what
// releases the block's allocation. A weak observer can therefore always
// query liveness after the pointee is gone.
type controlBlock struct {
	noCopy noCopy //nolint:unused // copylocks marker

	strong uint
	weak   uint
	lifecycle
}

func (b *controlBlock) addStrong() {
	b.strong++
}

func (b *controlBlock) addWeak() {
	b.weak++
}

// removeStrong drops one strong owner, destroying the pointee at zero.
// It reports whether the block itself must now be released.
func (b *controlBlock) removeStrong() bool {
	b.strong--
	if b.strong == 0 {
		b.destroyTarget()
	}

	return b.strong+b.weak == 0
}

// removeWeak drops one weak observer. It reports whether the block itself
// must now be released.
func (b *controlBlock) removeWeak() bool {
	b.weak--

	return b.strong+b.weak == 0
}

func (b *controlBlock) strongCount() uint {
	return b.strong
}

func (b *controlBlock) weakCount() uint {
	return b.weak
}

// releaseBlock finalizes a block once both counts have reached zero. The
// storage is reclaimed by the collector when the caller clears its last
// reference; severing the lifecycle here makes any later access fail loudly
// instead of resurrecting the block.
func releaseBlock(b *controlBlock) {
	b.lifecycle = nil
}

// refBlock is the referencing variant: it owns a target that was allocated
// elsewhere and runs a delete policy on it at zero strong.
type refBlock[T any] struct {
	controlBlock
	target *T
	del    Deleter[T]
}

func newRefBlock[T any](target *T, del Deleter[T]) *refBlock[T] {
	b := &refBlock[T]{target: target, del: del}
	b.strong = 1
	b.lifecycle = b

	return b
}

func (b *refBlock[T]) destroyTarget() {
	if b.target != nil {
		b.del.Delete(b.target)
		b.target = nil
	}
}

// embedBlock is the embedding variant: the object's storage lives inside
// the block, so metadata and object share one allocation. Zero strong runs
// in-place destruction only; the storage goes away with the block.
type embedBlock[T any] struct {
	controlBlock
	value T
}

func newEmbedBlock[T any](v T) *embedBlock[T] {
	b := &embedBlock[T]{value: v}
	b.strong = 1
	b.lifecycle = b

	return b
}

func (b *embedBlock[T]) destroyTarget() {
	destroyValue(&b.value)
}
