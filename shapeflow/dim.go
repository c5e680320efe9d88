package shapeflow

import (
	"strconv"
	"strings"
)

// DimKind distinguishes concrete dimensions from the symbolic placeholders.
type DimKind int

const (
	// DimConcrete is a dimension with a known, non-negative size.
	DimConcrete DimKind = iota

	// DimBatch is the batch axis: its size is chosen at training/inference
	// time and is never compared numerically at design time.
	DimBatch

	// DimSeq is a variable sequence length, likewise opaque to arithmetic.
	DimSeq
)

// Dim is one dimension of a tensor shape.
type Dim struct {
	Kind DimKind

	// Size is meaningful only when Kind == DimConcrete.
	Size int
}

var (
	// Batch is the symbolic batch dimension.
	Batch = Dim{Kind: DimBatch}

	// Seq is the symbolic sequence-length dimension.
	Seq = Dim{Kind: DimSeq}
)

// D returns a concrete dimension of the given size.
func D(size int) Dim {
	return Dim{Kind: DimConcrete, Size: size}
}

// IsConcrete reports whether the dimension has a known numeric size.
func (d Dim) IsConcrete() bool {
	return d.Kind == DimConcrete
}

// Equal compares two dimensions: concrete dims by size, symbolic tokens only
// to themselves.
func (d Dim) Equal(other Dim) bool {
	if d.Kind != other.Kind {
		return false
	}
	return d.Kind != DimConcrete || d.Size == other.Size
}

// String returns the concrete size, or the token name for symbolic dims.
func (d Dim) String() string {
	switch d.Kind {
	case DimBatch:
		return "Batch"
	case DimSeq:
		return "Seq"
	default:
		return strconv.Itoa(d.Size)
	}
}

// Shape is an ordered, fixed-length sequence of dimensions. By convention
// index 0 is the batch dimension when one is present. A nil Shape means
// "not resolved" (or a deliberate sink output) and renders as "?".
type Shape []Dim

// ShapeOf builds a shape from the given dimensions.
func ShapeOf(dims ...Dim) Shape {
	return Shape(dims)
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Equal reports whether two shapes have the same rank and pairwise equal
// dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, d := range s {
		if !d.Equal(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with s. A nil shape stays nil.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// String renders the shape as a bracketed, comma-joined dimension list,
// e.g. "[Batch, 784]". Nil renders as "?".
func (s Shape) String() string {
	if s == nil {
		return "?"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// convOut computes the convolution output size floor((x+2·pad−kernel)/stride)+1
// for a concrete dimension. Symbolic dimensions pass through unchanged; they
// never enter the arithmetic.
func convOut(x Dim, kernel, stride, padding int) Dim {
	if !x.IsConcrete() {
		return x
	}
	return D((x.Size+2*padding-kernel)/stride + 1)
}

// flattenTail collapses the trailing dims (everything after index 0) into one.
// If any trailing dim is symbolic the product is undefined and the result is
// the symbolic Seq token.
func flattenTail(s Shape) Dim {
	product := 1
	for _, d := range s[1:] {
		if !d.IsConcrete() {
			return Seq
		}
		product *= d.Size
	}
	return D(product)
}

// sumAlong sums dimension axis across the given shapes. If every operand is
// concrete the sum is concrete; otherwise the first shape's dim is kept.
func sumAlong(inputs []Shape, axis int) Dim {
	total := 0
	for _, s := range inputs {
		if !s[axis].IsConcrete() {
			return inputs[0][axis]
		}
		total += s[axis].Size
	}
	return D(total)
}
