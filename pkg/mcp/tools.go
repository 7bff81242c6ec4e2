package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
)

// Tool name constants.
const (
	ToolNameDedup      = "adlens_dedup"
	ToolNameSimilarity = "adlens_similarity"
)

// Input size limits.
const (
	// MaxDocuments is the maximum number of documents per dedup call.
	MaxDocuments = 50000
	// MaxTextBytes is the maximum size of one document or similarity operand (1 MB).
	MaxTextBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrNoDocuments indicates the documents parameter is empty.
	ErrNoDocuments = errors.New("documents parameter is required and must not be empty")
	// ErrTooManyDocuments indicates the documents exceed MaxDocuments.
	ErrTooManyDocuments = errors.New("too many documents")
	// ErrTextTooLarge indicates a document or similarity operand exceeds MaxTextBytes.
	ErrTextTooLarge = errors.New("text input exceeds maximum size")
)

// DedupInput is the input schema for the adlens_dedup tool.
type DedupInput struct {
	Documents    []dedup.Document `json:"documents"                      jsonschema:"listings with id and text, optionally scraped_year, scraped_month and scraped_day"`
	Method       string           `json:"method,omitempty"               jsonschema:"lsh (default), prefix or latlon"`
	CharNgram    int              `json:"char_ngram,omitempty"           jsonschema:"shingle size in characters"`
	Seeds        int              `json:"seeds,omitempty"                jsonschema:"number of MinHash seeds"`
	Bands        int              `json:"bands,omitempty"                jsonschema:"number of LSH bands, must divide seeds"`
	HashBytes    int              `json:"hash_width_bytes,omitempty"     jsonschema:"MinHash value width in bytes (1 to 8)"`
	Threshold    float64          `json:"similarity_threshold,omitempty" jsonschema:"Jaccard similarity at or above which a pair is a duplicate"`
	PrefixLength int              `json:"prefix_length,omitempty"        jsonschema:"characters compared by the prefix method"`
}

func (in DedupInput) options() dedup.Options {
	return dedup.Options{
		Method:       dedup.Method(in.Method),
		CharNgram:    in.CharNgram,
		Seeds:        in.Seeds,
		Bands:        in.Bands,
		HashBytes:    in.HashBytes,
		Threshold:    in.Threshold,
		PrefixLength: in.PrefixLength,
	}
}

// SimilarityInput is the input schema for the adlens_similarity tool.
type SimilarityInput struct {
	A         string  `json:"a"                              jsonschema:"first text"`
	B         string  `json:"b"                              jsonschema:"second text"`
	CharNgram int     `json:"char_ngram,omitempty"           jsonschema:"shingle size in characters"`
	Seeds     int     `json:"seeds,omitempty"                jsonschema:"number of MinHash seeds"`
	HashBytes int     `json:"hash_width_bytes,omitempty"     jsonschema:"MinHash value width in bytes (1 to 8)"`
	Threshold float64 `json:"similarity_threshold,omitempty" jsonschema:"Jaccard similarity at or above which the texts are duplicates"`
}

// SimilarityOutput is the result of the adlens_similarity tool.
type SimilarityOutput struct {
	Jaccard         float64 `json:"jaccard"`
	MinHashEstimate float64 `json:"minhash_estimate"`
	Duplicate       bool    `json:"duplicate"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleDedup(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input DedupInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	switch {
	case len(input.Documents) == 0:
		return errorResult(ErrNoDocuments)
	case len(input.Documents) > MaxDocuments:
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrTooManyDocuments, len(input.Documents), MaxDocuments))
	}

	for _, d := range input.Documents {
		if len(d.Text) > MaxTextBytes {
			return errorResult(fmt.Errorf("%w: document %d, max %d bytes", ErrTextTooLarge, d.ID, MaxTextBytes))
		}
	}

	opts := s.deps.Dedup.Override(input.options())
	opts.TextColumn = dedup.DefaultTextColumn

	pipeline, err := dedup.NewPipeline(opts)
	if err != nil {
		return errorResult(err)
	}

	pipeline.Logger = s.deps.Logger
	pipeline.Tracer = s.tracer
	pipeline.Metrics = s.deps.PipelineMetrics

	ds, err := dedup.DatasetFromDocuments(input.Documents)
	if err != nil {
		return errorResult(err)
	}

	res, err := pipeline.Run(ctx, ds)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

func (s *Server) handleSimilarity(
	_ context.Context, _ *mcpsdk.CallToolRequest, input SimilarityInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.A) > MaxTextBytes || len(input.B) > MaxTextBytes {
		return errorResult(fmt.Errorf("%w: max %d bytes", ErrTextTooLarge, MaxTextBytes))
	}

	opts := s.deps.Dedup.Override(dedup.Options{
		CharNgram: input.CharNgram,
		Seeds:     input.Seeds,
		HashBytes: input.HashBytes,
		Threshold: input.Threshold,
	})

	if err := dedup.ValidateThreshold(opts.Threshold); err != nil {
		return errorResult(err)
	}

	hasher, err := opts.NewHasher()
	if err != nil {
		return errorResult(err)
	}

	sim, err := dedup.Compare(input.A, input.B, hasher)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(SimilarityOutput{
		Jaccard:         sim.Jaccard,
		MinHashEstimate: sim.MinHashEstimate,
		Duplicate:       sim.Jaccard >= opts.Threshold,
	})
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
