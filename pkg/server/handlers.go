package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
	"github.com/Sumatoshi-tech/adlens/pkg/version"
)

var (
	// ErrTooManyDocuments is returned when a request exceeds Config.MaxDocuments.
	ErrTooManyDocuments = errors.New("server: too many documents")

	// ErrTextTooLarge is returned when a text exceeds Config.MaxTextBytes.
	ErrTextTooLarge = errors.New("server: text too large")
)

// DedupRequest is the body of POST /v1/dedup. Zero-valued options keep the
// server defaults.
type DedupRequest struct {
	Documents []dedup.Document `json:"documents"`
	Options   dedup.Options    `json:"options"`
}

// SimilarityRequest is the body of POST /v1/similarity.
type SimilarityRequest struct {
	A       string        `json:"a"`
	B       string        `json:"b"`
	Options dedup.Options `json:"options"`
}

// SimilarityResponse is the reply of POST /v1/similarity.
type SimilarityResponse struct {
	Jaccard         float64 `json:"jaccard"`
	MinHashEstimate float64 `json:"minhash_estimate"`
	Duplicate       bool    `json:"duplicate"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleDedup(c *gin.Context) {
	var req DedupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindStatus(err), err)

		return
	}

	if len(req.Documents) > s.cfg.MaxDocuments {
		s.fail(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: %d > %d", ErrTooManyDocuments, len(req.Documents), s.cfg.MaxDocuments))

		return
	}

	for _, d := range req.Documents {
		if len(d.Text) > s.cfg.MaxTextBytes {
			s.fail(c, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: document %d exceeds %d bytes", ErrTextTooLarge, d.ID, s.cfg.MaxTextBytes))

			return
		}
	}

	opts := s.cfg.Dedup.Override(req.Options)
	opts.TextColumn = dedup.DefaultTextColumn

	pipeline, err := dedup.NewPipeline(opts)
	if err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	pipeline.Logger = s.deps.Logger
	pipeline.Tracer = s.deps.Tracer
	pipeline.Metrics = s.deps.PipelineMetrics

	ds, err := dedup.DatasetFromDocuments(req.Documents)
	if err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	res, err := pipeline.Run(c.Request.Context(), ds)
	if err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSimilarity(c *gin.Context) {
	var req SimilarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindStatus(err), err)

		return
	}

	if len(req.A) > s.cfg.MaxTextBytes || len(req.B) > s.cfg.MaxTextBytes {
		s.fail(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: max %d bytes", ErrTextTooLarge, s.cfg.MaxTextBytes))

		return
	}

	opts := s.cfg.Dedup.Override(req.Options)
	if err := dedup.ValidateThreshold(opts.Threshold); err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	hasher, err := opts.NewHasher()
	if err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	sim, err := dedup.Compare(req.A, req.B, hasher)
	if err != nil {
		s.fail(c, statusFor(err), err)

		return
	}

	c.JSON(http.StatusOK, SimilarityResponse{
		Jaccard:         sim.Jaccard,
		MinHashEstimate: sim.MinHashEstimate,
		Duplicate:       sim.Jaccard >= opts.Threshold,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.deps.Logger.ErrorContext(c.Request.Context(), "request failed",
			"error", err, "request_id", RequestIDFrom(c))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), RequestID: RequestIDFrom(c)})
}

func bindStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusBadRequest
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dedup.ErrMissingColumns),
		errors.Is(err, dedup.ErrUnknownMethod),
		errors.Is(err, dedup.ErrInvalidThreshold),
		errors.Is(err, dedup.ErrInvalidPrefixLength),
		errors.Is(err, dedup.ErrDuplicateID),
		errors.Is(err, dataset.ErrDuplicateID),
		errors.Is(err, lsh.ErrBandsNotDivisor),
		errors.Is(err, lsh.ErrInvalidParams),
		errors.Is(err, minhash.ErrZeroSeeds),
		errors.Is(err, minhash.ErrTooManySeeds),
		errors.Is(err, minhash.ErrInvalidNgram),
		errors.Is(err, minhash.ErrInvalidHashWidth):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
