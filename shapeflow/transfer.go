package shapeflow

import (
	"fmt"
)

// Error strings with fixed wording the editor matches on.
const (
	errPartOfCycle  = "part of a cycle"
	errNoInput      = "No input connected."
	errDisconnected = "Disconnected — connect this block to the graph."
)

// Parameter defaults, shared with the editor palette. A freshly placed block
// carries exactly these values, so validation against the default must agree
// with what the palette shows.
const (
	defaultInFeatures   = 128
	defaultOutFeatures  = 128
	defaultInChannels   = 1
	defaultOutChannels  = 32
	defaultKernelSize   = 3
	defaultStride       = 1
	defaultPadding      = 0
	defaultInputSize    = 128
	defaultHiddenSize   = 128
	defaultEmbedDim     = 128
	defaultNumHeads     = 4
	defaultEmbeddingDim = 128
	defaultDModel       = 128
	defaultNormShape    = 128
	defaultNumFeatures  = 32
	defaultConcatDim    = 1
)

// defaultInputShape is the placeholder an Input block shows before training
// supplies the real shape (MNIST-sized, matching the editor default).
var defaultInputShape = []int{1, 28, 28}

// applyBlock is the block transfer library entry point: given a block type,
// its parameters and the resolved input shapes, it returns the output shape
// or an error message. It is pure and total over the BlockType enumeration;
// an unrecognized type is itself an error result.
//
// Fan-in blocks (Add, Concat) receive every resolved predecessor shape; all
// other types receive at most one. Sources ignore inputs entirely.
func applyBlock(bt BlockType, params Params, inputs []Shape) (Shape, string) {
	switch bt {
	case BlockInput:
		return inferInput(params), ""
	case BlockTextInput:
		return ShapeOf(Batch, Seq), ""
	}

	if len(inputs) == 0 {
		return nil, errNoInput
	}

	switch bt {
	case BlockAdd:
		return inferAdd(inputs)
	case BlockConcat:
		return inferConcat(params, inputs)
	}

	in := inputs[0]
	switch bt {
	case BlockOutput:
		// Deliberate sink: accepts anything, produces nothing.
		return nil, ""
	case BlockLinear:
		return inferLinear(params, in)
	case BlockConv2D:
		return inferConv2D(params, in)
	case BlockLSTM:
		return inferLSTM(params, in)
	case BlockAttention:
		return inferAttention(params, in)
	case BlockLayerNorm:
		return inferLayerNorm(params, in)
	case BlockBatchNorm:
		return inferBatchNorm(params, in)
	case BlockActivation, BlockDropout, BlockSoftmax:
		return in.Clone(), ""
	case BlockFlatten:
		return inferFlatten(in)
	case BlockEmbedding:
		return inferEmbedding("Embedding", params, in)
	case BlockTextEmbedding:
		return inferEmbedding("TextEmbedding", params, in)
	case BlockPositionalEncoding:
		if in.Rank() != 3 {
			return nil, fmt.Sprintf("PositionalEncoding expects a 3D input [batch, seq, d_model], got rank %d", in.Rank())
		}
		return in.Clone(), ""
	case BlockPositionalEmbedding:
		return inferPositionalEmbedding(params, in)
	default:
		return nil, fmt.Sprintf("unknown block type %q", bt)
	}
}

func inferInput(params Params) Shape {
	dims := params.Ints("shape")
	if len(dims) == 0 {
		dims = defaultInputShape
	}
	out := make(Shape, 0, len(dims)+1)
	out = append(out, Batch)
	for _, d := range dims {
		out = append(out, D(d))
	}
	return out
}

func inferLinear(params Params, in Shape) (Shape, string) {
	if in.Rank() < 1 {
		return nil, "Linear expects at least a 1D input, got a scalar"
	}
	inFeatures := params.Int("in_features", defaultInFeatures)
	last := in[in.Rank()-1]
	if last.IsConcrete() && last.Size != inFeatures {
		return nil, fmt.Sprintf("Linear expects last input dimension %d (in_features), got %d", inFeatures, last.Size)
	}
	out := in[:in.Rank()-1].Clone()
	out = append(out, D(params.Int("out_features", defaultOutFeatures)))
	return out, ""
}

func inferConv2D(params Params, in Shape) (Shape, string) {
	if in.Rank() != 4 {
		return nil, fmt.Sprintf("Conv2D expects a 4D input [batch, channels, height, width], got rank %d", in.Rank())
	}
	inChannels := params.Int("in_channels", defaultInChannels)
	if in[1].IsConcrete() && in[1].Size != inChannels {
		return nil, fmt.Sprintf("Conv2D expects %d input channels (in_channels), got %d", inChannels, in[1].Size)
	}
	kernel := params.Int("kernel_size", defaultKernelSize)
	stride := params.Int("stride", defaultStride)
	padding := params.Int("padding", defaultPadding)
	if stride <= 0 {
		return nil, fmt.Sprintf("Conv2D stride must be positive, got %d", stride)
	}
	h := convOut(in[2], kernel, stride, padding)
	w := convOut(in[3], kernel, stride, padding)
	if (h.IsConcrete() && h.Size <= 0) || (w.IsConcrete() && w.Size <= 0) {
		return nil, fmt.Sprintf("Conv2D output spatial dims are non-positive: [%s, %s] (kernel_size=%d, stride=%d, padding=%d)",
			h, w, kernel, stride, padding)
	}
	return ShapeOf(in[0], D(params.Int("out_channels", defaultOutChannels)), h, w), ""
}

func inferFlatten(in Shape) (Shape, string) {
	if in.Rank() < 2 {
		return nil, fmt.Sprintf("Flatten expects at least a 2D input, got rank %d", in.Rank())
	}
	return ShapeOf(in[0], flattenTail(in)), ""
}

func inferLSTM(params Params, in Shape) (Shape, string) {
	if in.Rank() != 3 {
		return nil, fmt.Sprintf("LSTM expects a 3D input [batch, seq, features], got rank %d", in.Rank())
	}
	inputSize := params.Int("input_size", defaultInputSize)
	if in[2].IsConcrete() && in[2].Size != inputSize {
		return nil, fmt.Sprintf("LSTM expects input feature dimension %d (input_size), got %d", inputSize, in[2].Size)
	}
	return ShapeOf(in[0], in[1], D(params.Int("hidden_size", defaultHiddenSize))), ""
}

func inferAttention(params Params, in Shape) (Shape, string) {
	if in.Rank() != 3 {
		return nil, fmt.Sprintf("Attention expects a 3D input [batch, seq, embed_dim], got rank %d", in.Rank())
	}
	embedDim := params.Int("embed_dim", defaultEmbedDim)
	numHeads := params.Int("num_heads", defaultNumHeads)
	if in[2].IsConcrete() && in[2].Size != embedDim {
		return nil, fmt.Sprintf("Attention expects embedding dimension %d (embed_dim), got %d", embedDim, in[2].Size)
	}
	if numHeads <= 0 || embedDim%numHeads != 0 {
		return nil, fmt.Sprintf("Attention embed_dim %d is not divisible by num_heads %d", embedDim, numHeads)
	}
	return in.Clone(), ""
}

func inferLayerNorm(params Params, in Shape) (Shape, string) {
	if in.Rank() < 1 {
		return in.Clone(), ""
	}
	normalized := params.Int("normalized_shape", defaultNormShape)
	last := in[in.Rank()-1]
	if last.IsConcrete() && last.Size != normalized {
		return nil, fmt.Sprintf("LayerNorm expects last dimension %d (normalized_shape), got %d", normalized, last.Size)
	}
	return in.Clone(), ""
}

func inferBatchNorm(params Params, in Shape) (Shape, string) {
	if in.Rank() < 2 {
		return nil, fmt.Sprintf("BatchNorm expects at least a 2D input, got rank %d", in.Rank())
	}
	numFeatures := params.Int("num_features", defaultNumFeatures)
	if in[1].IsConcrete() && in[1].Size != numFeatures {
		return nil, fmt.Sprintf("BatchNorm expects %d features in dimension 1 (num_features), got %d", numFeatures, in[1].Size)
	}
	return in.Clone(), ""
}

func inferEmbedding(name string, params Params, in Shape) (Shape, string) {
	if in.Rank() != 2 {
		return nil, fmt.Sprintf("%s expects a 2D input [batch, seq], got rank %d", name, in.Rank())
	}
	return ShapeOf(in[0], in[1], D(params.Int("embedding_dim", defaultEmbeddingDim))), ""
}

func inferPositionalEmbedding(params Params, in Shape) (Shape, string) {
	if in.Rank() != 3 {
		return nil, fmt.Sprintf("PositionalEmbedding expects a 3D input [batch, seq, d_model], got rank %d", in.Rank())
	}
	dModel := params.Int("d_model", defaultDModel)
	last := in[2]
	if last.IsConcrete() && last.Size != dModel {
		return nil, fmt.Sprintf("PositionalEmbedding expects last dimension %d (d_model), got %d", dModel, last.Size)
	}
	return in.Clone(), ""
}

func inferAdd(inputs []Shape) (Shape, string) {
	if len(inputs) < 2 {
		return nil, fmt.Sprintf("Add needs at least two connected inputs, got %d", len(inputs))
	}
	first := inputs[0]
	for _, other := range inputs[1:] {
		if !first.Equal(other) {
			return nil, fmt.Sprintf("Add inputs must have identical shapes, got %s and %s", first, other)
		}
	}
	return first.Clone(), ""
}

func inferConcat(params Params, inputs []Shape) (Shape, string) {
	if len(inputs) < 2 {
		return nil, fmt.Sprintf("Concat needs at least two connected inputs, got %d", len(inputs))
	}
	first := inputs[0]
	for _, other := range inputs[1:] {
		if other.Rank() != first.Rank() {
			return nil, fmt.Sprintf("Concat inputs must have the same rank, got %s and %s", first, other)
		}
	}
	dim := params.Int("dim", defaultConcatDim)
	if dim < 0 || dim >= first.Rank() {
		return nil, fmt.Sprintf("Concat dim %d is out of range for rank %d inputs", dim, first.Rank())
	}
	for _, other := range inputs[1:] {
		for axis := range first {
			if axis == dim {
				continue
			}
			a, b := first[axis], other[axis]
			if a.IsConcrete() && b.IsConcrete() && a.Size != b.Size {
				return nil, fmt.Sprintf("Concat inputs differ at dim %d: %s vs %s", axis, first, other)
			}
		}
	}
	out := first.Clone()
	out[dim] = sumAlong(inputs, dim)
	return out, ""
}
