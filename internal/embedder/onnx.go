package embedder

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/jardhel/seu-claude/internal/errs"
)

// maxSeqLen caps tokenized input length; sequences longer than this are
// truncated before inference. The attention matrix is O(seqLen^2), so this
// bound keeps per-chunk latency predictable on CPU-only inference.
const maxSeqLen = 512

const defaultBatchSize = 32

// ONNXProvider wraps a native-dimensionality ONNX sentence-embedding model
// and truncates/renormalizes its output to the configured Matryoshka
// dimensionality.
type ONNXProvider struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *tokenizers.Tokenizer
	nativeDim  int
	outputDim  int
	batchSize  int
}

// Config describes where to find the model artifacts and what output
// dimensionality to truncate to.
type Config struct {
	ModelDir   string // must contain model.onnx and tokenizer.json
	NativeDim  int    // the model's un-truncated output width
	OutputDim  int    // config.EmbeddingDimensions; <= NativeDim
	NumThreads int    // 0 = min(4, NumCPU)
	BatchSize  int    // 0 = defaultBatchSize
}

// New loads the ONNX model and tokenizer described by cfg. Loading fails
// fast: a missing model or tokenizer file, or a dimension mismatch, is
// reported here rather than surfacing lazily on the first embed call.
func New(cfg Config) (*ONNXProvider, error) {
	modelPath := filepath.Join(cfg.ModelDir, "model.onnx")
	tokenPath := filepath.Join(cfg.ModelDir, "tokenizer.json")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, errs.Embedding(fmt.Sprintf("model not found at %s", modelPath), err)
	}
	if _, err := os.Stat(tokenPath); err != nil {
		return nil, errs.Embedding(fmt.Sprintf("tokenizer not found at %s", tokenPath), err)
	}
	if cfg.OutputDim <= 0 || cfg.OutputDim > cfg.NativeDim {
		return nil, errs.Embedding(fmt.Sprintf("output dimension %d invalid for native dimension %d", cfg.OutputDim, cfg.NativeDim), nil)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errs.Embedding("initialize onnx runtime", err)
	}

	numThreads := cfg.NumThreads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
		if numThreads > 4 {
			numThreads = 4
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errs.Embedding("create session options", err)
	}
	defer opts.Destroy()
	if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
		return nil, errs.Embedding("set intra-op threads", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, errs.Embedding("set inter-op threads", err)
	}

	inputNames := []string{"input_ids", "attention_mask", "token_type_ids"}
	outputNames := []string{"last_hidden_state"}
	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, opts)
	if err != nil {
		return nil, errs.Embedding("create onnx session", err)
	}

	tk, err := tokenizers.FromFile(tokenPath)
	if err != nil {
		session.Destroy()
		return nil, errs.Embedding("load tokenizer", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &ONNXProvider{
		session:   session,
		tokenizer: tk,
		nativeDim: cfg.NativeDim,
		outputDim: cfg.OutputDim,
		batchSize: batchSize,
	}, nil
}

// Dimensions reports the configured (possibly Matryoshka-truncated) width.
func (p *ONNXProvider) Dimensions() int { return p.outputDim }

// Close releases the ONNX session and tokenizer.
func (p *ONNXProvider) Close() error {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.tokenizer != nil {
		p.tokenizer.Close()
	}
	return nil
}

// EmbedBatch embeds texts in batchSize-sized groups, prefixing each with
// mode's asymmetric-retrieval instruction.
func (p *ONNXProvider) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	prefix := documentPrefix
	if mode == ModeQuery {
		prefix = queryPrefix
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += p.batchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := i + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		prefixed := make([]string, end-i)
		for j, t := range texts[i:end] {
			prefixed[j] = prefix + t
		}
		batch, err := p.embedBatch(prefixed)
		if err != nil {
			return nil, errs.Embedding(fmt.Sprintf("batch [%d:%d]", i, end), err)
		}
		results = append(results, batch...)
	}
	return results, nil
}

type encodedText struct {
	ids  []int64
	mask []int64
}

func (p *ONNXProvider) embedBatch(texts []string) ([][]float32, error) {
	batchSize := len(texts)
	all := make([]encodedText, batchSize)
	maxLen := 0
	for i, text := range texts {
		enc := p.tokenizer.EncodeWithOptions(text, true, tokenizers.WithReturnAttentionMask())
		ids := enc.IDs
		if len(ids) > maxSeqLen {
			ids = ids[:maxSeqLen]
		}
		ids64 := make([]int64, len(ids))
		mask64 := make([]int64, len(ids))
		for j, v := range ids {
			ids64[j] = int64(v)
			mask64[j] = 1
		}
		if len(enc.AttentionMask) >= len(ids) {
			for j := range ids64 {
				mask64[j] = int64(enc.AttentionMask[j])
			}
		}
		all[i] = encodedText{ids: ids64, mask: mask64}
		if len(ids64) > maxLen {
			maxLen = len(ids64)
		}
	}
	if maxLen == 0 {
		return nil, fmt.Errorf("all texts tokenized to zero length")
	}

	flatIDs := make([]int64, batchSize*maxLen)
	flatMask := make([]int64, batchSize*maxLen)
	flatType := make([]int64, batchSize*maxLen)
	for i, enc := range all {
		copy(flatIDs[i*maxLen:], enc.ids)
		copy(flatMask[i*maxLen:], enc.mask)
	}
	shape := ort.NewShape(int64(batchSize), int64(maxLen))

	inputIDs, err := ort.NewTensor(shape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()
	attnMask, err := ort.NewTensor(shape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer attnMask.Destroy()
	typeIDs, err := ort.NewTensor(shape, flatType)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer typeIDs.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{inputIDs, attnMask, typeIDs}, outputs); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	hiddenTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want *Tensor[float32])")
	}
	hidden := hiddenTensor.GetData()
	seqLen := int(hiddenTensor.GetShape()[1])

	embeddings := make([][]float32, batchSize)
	for i := 0; i < batchSize; i++ {
		base := i * seqLen * p.nativeDim
		vec := make([]float32, p.outputDim)
		copy(vec, hidden[base:base+p.outputDim])
		l2Normalize(vec)
		embeddings[i] = vec
	}
	return embeddings, nil
}

// l2Normalize normalizes v in-place to unit length. Called after Matryoshka
// truncation, since truncating a normalized vector leaves it non-unit.
func l2Normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm < 1e-10 {
		return
	}
	inv := float32(1.0 / norm)
	for i := range v {
		v[i] *= inv
	}
}
