package shapeflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputBlock(t *testing.T) {
	out, errMsg := applyBlock(BlockInput, Params{"shape": []int{1, 28, 28}}, nil)
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(1), D(28), D(28)).Equal(out))

	// Missing shape falls back to the palette default.
	out, errMsg = applyBlock(BlockInput, nil, nil)
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(1), D(28), D(28)).Equal(out))
}

func TestTextInputBlock(t *testing.T) {
	out, errMsg := applyBlock(BlockTextInput, Params{"seq_len": 256}, nil)
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, Seq).Equal(out))
}

func TestOutputBlockIsSink(t *testing.T) {
	out, errMsg := applyBlock(BlockOutput, nil, []Shape{ShapeOf(Batch, D(10))})
	assert.Nil(t, out)
	assert.Empty(t, errMsg)
}

func TestNoInputConnected(t *testing.T) {
	for _, bt := range []BlockType{
		BlockOutput, BlockLinear, BlockConv2D, BlockLSTM, BlockAttention,
		BlockLayerNorm, BlockBatchNorm, BlockActivation, BlockDropout,
		BlockFlatten, BlockEmbedding, BlockTextEmbedding,
		BlockPositionalEncoding, BlockPositionalEmbedding, BlockSoftmax,
		BlockAdd, BlockConcat,
	} {
		out, errMsg := applyBlock(bt, nil, nil)
		assert.Nil(t, out, "%s", bt)
		assert.Equal(t, "No input connected.", errMsg, "%s", bt)
	}
}

func TestLinear(t *testing.T) {
	params := Params{"in_features": 784, "out_features": 128}

	out, errMsg := applyBlock(BlockLinear, params, []Shape{ShapeOf(Batch, D(784))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(128)).Equal(out))

	// 3D input: applied to the last dim, leading dims kept.
	out, errMsg = applyBlock(BlockLinear, params, []Shape{ShapeOf(Batch, Seq, D(784))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, Seq, D(128)).Equal(out))

	// Symbolic last dim skips the check.
	out, errMsg = applyBlock(BlockLinear, params, []Shape{ShapeOf(Batch, Seq)})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(128)).Equal(out))
}

func TestLinearMismatchNamesBothValues(t *testing.T) {
	out, errMsg := applyBlock(BlockLinear, Params{"in_features": 100}, []Shape{ShapeOf(Batch, D(784))})
	assert.Nil(t, out)
	require.NotEmpty(t, errMsg)
	assert.Contains(t, errMsg, "100")
	assert.Contains(t, errMsg, "784")
	assert.Contains(t, errMsg, "in_features")
}

func TestConv2D(t *testing.T) {
	in := ShapeOf(Batch, D(16), D(32), D(32))
	params := Params{"in_channels": 16, "out_channels": 32, "kernel_size": 3, "stride": 1, "padding": 1}

	// Same-padding identity on spatial dims.
	out, errMsg := applyBlock(BlockConv2D, params, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(32), D(32), D(32)).Equal(out))

	params["padding"] = 0
	out, errMsg = applyBlock(BlockConv2D, params, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(32), D(30), D(30)).Equal(out))
}

func TestConv2DRankError(t *testing.T) {
	out, errMsg := applyBlock(BlockConv2D, nil, []Shape{ShapeOf(Batch, D(784))})
	assert.Nil(t, out)
	assert.Contains(t, errMsg, "4D")
	assert.Contains(t, errMsg, "rank 2")
}

func TestConv2DChannelMismatch(t *testing.T) {
	in := ShapeOf(Batch, D(3), D(32), D(32))
	out, errMsg := applyBlock(BlockConv2D, Params{"in_channels": 16}, []Shape{in})
	assert.Nil(t, out)
	assert.Contains(t, errMsg, "16")
	assert.Contains(t, errMsg, "3")
	assert.Contains(t, errMsg, "in_channels")
}

func TestConv2DNonPositiveSpatial(t *testing.T) {
	in := ShapeOf(Batch, D(1), D(2), D(2))
	out, errMsg := applyBlock(BlockConv2D, Params{"in_channels": 1, "kernel_size": 5}, []Shape{in})
	assert.Nil(t, out)
	assert.Contains(t, errMsg, "non-positive")
	assert.Contains(t, errMsg, "kernel_size=5")
}

func TestFlatten(t *testing.T) {
	out, errMsg := applyBlock(BlockFlatten, nil, []Shape{ShapeOf(Batch, D(1), D(28), D(28))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(784)).Equal(out))

	// Symbolic trailing dim: no bogus product, propagate Seq.
	out, errMsg = applyBlock(BlockFlatten, nil, []Shape{ShapeOf(Batch, Seq, D(128))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, Seq).Equal(out))

	out, errMsg = applyBlock(BlockFlatten, nil, []Shape{ShapeOf(D(784))})
	assert.Nil(t, out)
	assert.Contains(t, errMsg, "2D")
}

func TestLSTM(t *testing.T) {
	params := Params{"input_size": 128, "hidden_size": 256}
	out, errMsg := applyBlock(BlockLSTM, params, []Shape{ShapeOf(Batch, Seq, D(128))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, Seq, D(256)).Equal(out))

	_, errMsg = applyBlock(BlockLSTM, params, []Shape{ShapeOf(Batch, D(128))})
	assert.Contains(t, errMsg, "3D")

	_, errMsg = applyBlock(BlockLSTM, params, []Shape{ShapeOf(Batch, Seq, D(64))})
	assert.Contains(t, errMsg, "128")
	assert.Contains(t, errMsg, "64")
	assert.Contains(t, errMsg, "input_size")
}

func TestAttention(t *testing.T) {
	in := ShapeOf(Batch, Seq, D(256))
	params := Params{"embed_dim": 256, "num_heads": 8}

	out, errMsg := applyBlock(BlockAttention, params, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, in.Equal(out))

	_, errMsg = applyBlock(BlockAttention, Params{"embed_dim": 256, "num_heads": 6}, []Shape{in})
	assert.Contains(t, errMsg, "256")
	assert.Contains(t, errMsg, "6")
	assert.Contains(t, errMsg, "divisible")

	_, errMsg = applyBlock(BlockAttention, Params{"embed_dim": 128, "num_heads": 8}, []Shape{in})
	assert.Contains(t, errMsg, "128")
	assert.Contains(t, errMsg, "256")
	assert.Contains(t, errMsg, "embed_dim")
}

func TestLayerNorm(t *testing.T) {
	params := Params{"normalized_shape": 128}
	in := ShapeOf(Batch, Seq, D(128))
	out, errMsg := applyBlock(BlockLayerNorm, params, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, in.Equal(out))

	_, errMsg = applyBlock(BlockLayerNorm, params, []Shape{ShapeOf(Batch, D(64))})
	assert.Contains(t, errMsg, "128")
	assert.Contains(t, errMsg, "64")
	assert.Contains(t, errMsg, "normalized_shape")
}

func TestBatchNorm(t *testing.T) {
	params := Params{"num_features": 16}
	in := ShapeOf(Batch, D(16), D(32), D(32))
	out, errMsg := applyBlock(BlockBatchNorm, params, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, in.Equal(out))

	_, errMsg = applyBlock(BlockBatchNorm, params, []Shape{ShapeOf(D(16))})
	assert.Contains(t, errMsg, "2D")

	_, errMsg = applyBlock(BlockBatchNorm, params, []Shape{ShapeOf(Batch, D(32), D(8), D(8))})
	assert.Contains(t, errMsg, "16")
	assert.Contains(t, errMsg, "32")
	assert.Contains(t, errMsg, "num_features")
}

func TestIdentityBlocks(t *testing.T) {
	in := ShapeOf(Batch, Seq, D(128))
	for _, bt := range []BlockType{BlockActivation, BlockDropout, BlockSoftmax} {
		out, errMsg := applyBlock(bt, nil, []Shape{in})
		require.Empty(t, errMsg, "%s", bt)
		assert.True(t, in.Equal(out), "%s", bt)
	}
}

func TestEmbedding(t *testing.T) {
	params := Params{"embedding_dim": 300}
	out, errMsg := applyBlock(BlockEmbedding, params, []Shape{ShapeOf(Batch, Seq)})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, Seq, D(300)).Equal(out))

	_, errMsg = applyBlock(BlockEmbedding, params, []Shape{ShapeOf(Batch, Seq, D(1))})
	assert.Contains(t, errMsg, "Embedding")
	assert.Contains(t, errMsg, "2D")

	out, errMsg = applyBlock(BlockTextEmbedding, nil, []Shape{ShapeOf(Batch, D(256))})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(256), D(128)).Equal(out))
}

func TestPositionalBlocks(t *testing.T) {
	in := ShapeOf(Batch, Seq, D(128))

	out, errMsg := applyBlock(BlockPositionalEncoding, nil, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, in.Equal(out))

	_, errMsg = applyBlock(BlockPositionalEncoding, nil, []Shape{ShapeOf(Batch, D(128))})
	assert.Contains(t, errMsg, "3D")

	out, errMsg = applyBlock(BlockPositionalEmbedding, Params{"d_model": 128}, []Shape{in})
	require.Empty(t, errMsg)
	assert.True(t, in.Equal(out))

	_, errMsg = applyBlock(BlockPositionalEmbedding, Params{"d_model": 512}, []Shape{in})
	assert.Contains(t, errMsg, "512")
	assert.Contains(t, errMsg, "128")
	assert.Contains(t, errMsg, "d_model")
}

func TestAdd(t *testing.T) {
	a := ShapeOf(Batch, Seq, D(128))

	out, errMsg := applyBlock(BlockAdd, nil, []Shape{a, a.Clone()})
	require.Empty(t, errMsg)
	assert.True(t, a.Equal(out))

	// One resolved input is an explicit arity error, not a passthrough.
	_, errMsg = applyBlock(BlockAdd, nil, []Shape{a})
	assert.Contains(t, errMsg, "two")

	_, errMsg = applyBlock(BlockAdd, nil, []Shape{a, ShapeOf(Batch, Seq, D(64))})
	assert.Contains(t, errMsg, "identical")
	assert.Contains(t, errMsg, "[Batch, Seq, 128]")
	assert.Contains(t, errMsg, "[Batch, Seq, 64]")
}

func TestConcat(t *testing.T) {
	a := ShapeOf(Batch, D(64))
	b := ShapeOf(Batch, D(32))

	out, errMsg := applyBlock(BlockConcat, Params{"dim": 1}, []Shape{a, b})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(96)).Equal(out))

	// Symbolic operand along the concat dim: keep the first input's value.
	out, errMsg = applyBlock(BlockConcat, Params{"dim": 1}, []Shape{a, ShapeOf(Batch, Seq)})
	require.Empty(t, errMsg)
	assert.True(t, ShapeOf(Batch, D(64)).Equal(out))

	_, errMsg = applyBlock(BlockConcat, nil, []Shape{a})
	assert.Contains(t, errMsg, "two")

	_, errMsg = applyBlock(BlockConcat, nil, []Shape{a, ShapeOf(Batch, D(32), D(2))})
	assert.Contains(t, errMsg, "rank")

	_, errMsg = applyBlock(BlockConcat, Params{"dim": 5}, []Shape{a, b})
	assert.Contains(t, errMsg, "out of range")

	// Non-concat axes must agree when both are concrete.
	_, errMsg = applyBlock(BlockConcat, Params{"dim": 2},
		[]Shape{ShapeOf(Batch, D(4), D(8)), ShapeOf(Batch, D(5), D(8))})
	assert.Contains(t, errMsg, "differ at dim 1")
}

func TestUnknownBlockType(t *testing.T) {
	out, errMsg := applyBlock(BlockUnknown, nil, []Shape{ShapeOf(Batch, D(1))})
	assert.Nil(t, out)
	assert.Contains(t, errMsg, "unknown block type")
}
