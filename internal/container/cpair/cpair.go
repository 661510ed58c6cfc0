// Package cpair provides a two-slot value container that pays no storage
// for a second slot whose type carries no runtime state.
//
// Stateless cleanup policies are the common second slot: a zero-size policy
// type contributes zero bytes, so Sizeof(Pair[F, policy]) == Sizeof(F). The
// second slot is laid out first because Go reserves padding for a zero-size
// field in the trailing position.
package cpair

// Pair holds two independently mutable values. The storage layout is an
// implementation detail; callers interact only through First and Second.
type Pair[F, S any] struct {
	second S
	first  F
}

// MakePair constructs a pair from both slot values.
func MakePair[F, S any](first F, second S) Pair[F, S] {
	return Pair[F, S]{first: first, second: second}
}

// MakeFirst constructs a pair from the first slot value, default-constructing
// the second.
func MakeFirst[F, S any](first F) Pair[F, S] {
	return Pair[F, S]{first: first}
}

// MakeSecond constructs a pair from the second slot value, default-constructing
// the first.
func MakeSecond[F, S any](second S) Pair[F, S] {
	return Pair[F, S]{second: second}
}

// First returns the address of the first slot.
func (p *Pair[F, S]) First() *F {
	return &p.first
}

// Second returns the address of the second slot.
func (p *Pair[F, S]) Second() *S {
	return &p.second
}
