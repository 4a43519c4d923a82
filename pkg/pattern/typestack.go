package pattern

// TypeStack records the pairs of named types being compared, so that
// Encompasses terminates on recursive definitions.
type TypeStack []typePair

type typePair struct {
	this, other string
}

// Contains reports whether the pair is already being compared.
func (s TypeStack) Contains(this, other string) bool {
	for _, p := range s {
		if p.this == this && p.other == other {
			return true
		}
	}
	return false
}

// Push returns a new stack with the pair added.
func (s TypeStack) Push(this, other string) TypeStack {
	out := make(TypeStack, len(s), len(s)+1)
	copy(out, s)
	return append(out, typePair{this: this, other: other})
}
