package shapeflow

// ConnectionCheck is the verdict on one proposed edge.
type ConnectionCheck struct {
	Valid bool
	Error string
}

// ValidateConnection decides whether a proposed edge from source to target
// would be accepted, given the source's already-resolved output shape. The
// editor calls it synchronously on every drag-to-connect gesture, before the
// edge exists in the graph.
//
// It is a conservative gate, deliberately narrower than Propagate:
//
//   - a nil sourceOutput (source not yet resolvable) is optimistically valid,
//     so in-progress graphs aren't blocked;
//   - fan-in targets (Add, Concat) are optimistically valid, since their
//     multiplicity rules can't be judged from one candidate edge;
//   - source targets ignore inputs, so edges into them are accepted here and
//     ignored by the driver.
//
// A "valid" here followed by a driver-reported error after the edge commits
// is accepted behavior, not a bug. For single-input targets the verdict is
// the same one Propagate would reach for that edge in isolation, because both
// dispatch into the same transfer rules.
func ValidateConnection(source, target Node, sourceOutput Shape) ConnectionCheck {
	_ = source // The verdict depends only on the resolved shape, not the producer.
	if sourceOutput == nil {
		return ConnectionCheck{Valid: true}
	}
	if target.Type.IsFanIn() || target.Type.IsSource() {
		return ConnectionCheck{Valid: true}
	}
	if _, errMsg := applyBlock(target.Type, target.Params, []Shape{sourceOutput}); errMsg != "" {
		return ConnectionCheck{Valid: false, Error: errMsg}
	}
	return ConnectionCheck{Valid: true}
}
