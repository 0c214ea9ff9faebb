// Package sideeffect records the outcome of best-effort collaborator calls
// made after a primary state transition commits. The core result of an
// operation is reported separately from these outcomes so a failed email or
// reservation never masks a committed transition.
package sideeffect

// Outcome is one attempted side effect.
type Outcome struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// OK reports whether the side effect succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Record builds an outcome for appending to a result.
func Record(name string, err error) Outcome {
	return Outcome{Name: name, Err: err}
}
