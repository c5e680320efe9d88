package shapeflow

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BlockType is the closed enumeration of block kinds the editor can place.
type BlockType int

const (
	// BlockUnknown is the zero value; it is reported by the transfer library
	// as an error, never silently passed through.
	BlockUnknown BlockType = iota

	BlockInput
	BlockTextInput
	BlockOutput
	BlockLinear
	BlockConv2D
	BlockLSTM
	BlockAttention
	BlockLayerNorm
	BlockBatchNorm
	BlockActivation
	BlockDropout
	BlockFlatten
	BlockEmbedding
	BlockTextEmbedding
	BlockPositionalEncoding
	BlockPositionalEmbedding
	BlockSoftmax
	BlockAdd
	BlockConcat
)

// String returns the display name used by the editor palette.
func (bt BlockType) String() string {
	switch bt {
	case BlockInput:
		return "Input"
	case BlockTextInput:
		return "TextInput"
	case BlockOutput:
		return "Output"
	case BlockLinear:
		return "Linear"
	case BlockConv2D:
		return "Conv2D"
	case BlockLSTM:
		return "LSTM"
	case BlockAttention:
		return "Attention"
	case BlockLayerNorm:
		return "LayerNorm"
	case BlockBatchNorm:
		return "BatchNorm"
	case BlockActivation:
		return "Activation"
	case BlockDropout:
		return "Dropout"
	case BlockFlatten:
		return "Flatten"
	case BlockEmbedding:
		return "Embedding"
	case BlockTextEmbedding:
		return "TextEmbedding"
	case BlockPositionalEncoding:
		return "PositionalEncoding"
	case BlockPositionalEmbedding:
		return "PositionalEmbedding"
	case BlockSoftmax:
		return "Softmax"
	case BlockAdd:
		return "Add"
	case BlockConcat:
		return "Concat"
	default:
		return "unknown"
	}
}

// blockTypeNames maps normalized (lowercase, no underscores) names to types.
// The editor historically exported both PascalCase and snake_case spellings.
var blockTypeNames = map[string]BlockType{
	"input":               BlockInput,
	"textinput":           BlockTextInput,
	"output":              BlockOutput,
	"linear":              BlockLinear,
	"conv2d":              BlockConv2D,
	"lstm":                BlockLSTM,
	"attention":           BlockAttention,
	"layernorm":           BlockLayerNorm,
	"batchnorm":           BlockBatchNorm,
	"activation":          BlockActivation,
	"dropout":             BlockDropout,
	"flatten":             BlockFlatten,
	"embedding":           BlockEmbedding,
	"textembedding":       BlockTextEmbedding,
	"positionalencoding":  BlockPositionalEncoding,
	"positionalembedding": BlockPositionalEmbedding,
	"softmax":             BlockSoftmax,
	"add":                 BlockAdd,
	"concat":              BlockConcat,
}

// ParseBlockType converts an editor type name ("Conv2D", "text_input", ...)
// to a BlockType. Unknown names return BlockUnknown and an error.
func ParseBlockType(name string) (BlockType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "")
	if bt, found := blockTypeNames[normalized]; found {
		return bt, nil
	}
	return BlockUnknown, errors.Errorf("unknown block type %q", name)
}

// IsSource reports whether the block produces its output without any input
// (Input and TextInput are the only true sources).
func (bt BlockType) IsSource() bool {
	return bt == BlockInput || bt == BlockTextInput
}

// IsFanIn reports whether the block consumes every incoming edge (Add and
// Concat) rather than only the first resolved one.
func (bt BlockType) IsFanIn() bool {
	return bt == BlockAdd || bt == BlockConcat
}

// Params is a block's parameter mapping. Values arrive from the editor's JSON
// so numbers are typically float64; the accessors coerce. Unrecognized keys
// are ignored by the transfer rules, missing keys fall back to the rule's
// default.
type Params map[string]any

// Int returns the integer value for key, falling back to def when the key is
// missing or not coercible. Accepts numbers, numeric strings, and the first
// element of a list (the editor sometimes wraps scalars).
func (p Params) Int(key string, def int) int {
	if p == nil {
		return def
	}
	return intFromAny(p[key], def)
}

// Float returns the float value for key, falling back to def.
func (p Params) Float(key string, def float64) float64 {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// Str returns the string value for key, falling back to def.
func (p Params) Str(key string, def string) string {
	if p == nil {
		return def
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Ints returns the integer list for key, or nil when absent/empty. Non-numeric
// entries are skipped.
func (p Params) Ints(key string) []int {
	if p == nil {
		return nil
	}
	return intsFromAny(p[key])
}

func intFromAny(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	case float32:
		return int(x)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	case []any:
		if len(x) > 0 {
			return intFromAny(x[0], def)
		}
	}
	return def
}

func intsFromAny(v any) []int {
	switch x := v.(type) {
	case []int:
		if len(x) == 0 {
			return nil
		}
		out := make([]int, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]int, 0, len(x))
		for _, e := range x {
			switch n := e.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

// Node is the engine's immutable snapshot of one editor block.
type Node struct {
	ID     string
	Type   BlockType
	Params Params
}

// Edge is a directed connection from one block's output to another's input.
// Operand identity for fan-in blocks is the edge's position in the edge list,
// not a declared port.
type Edge struct {
	ID     string
	Source string
	Target string
}
