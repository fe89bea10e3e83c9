package holder

import "github.com/gravitational/vcagent/tails"

// tailsAccessorFor adapts *tails.Accessor to crypto.TailsAccessor.
type tailsAccessorAdapter struct{ a *tails.Accessor }

func (t tailsAccessorAdapter) Read(index uint32) ([]byte, error) { return t.a.Read(index) }

func tailsAccessorFor(a *tails.Accessor) tailsAccessorAdapter {
	return tailsAccessorAdapter{a: a}
}
