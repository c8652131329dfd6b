package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/engine"
	"github.com/dewyman/TALON/internal/middleware"
	"github.com/dewyman/TALON/internal/models"
)

// maxBatchReads caps the reads accepted by one batch request.
const maxBatchReads = 1000

// AnnotationHandler serves read annotation, vertex matching and chain
// classification.
type AnnotationHandler struct {
	svc Annotator
	log *logrus.Logger
}

// NewAnnotationHandler creates an AnnotationHandler with the given service and logger.
func NewAnnotationHandler(svc Annotator, log *logrus.Logger) *AnnotationHandler {
	return &AnnotationHandler{svc: svc, log: log}
}

type batchRequest struct {
	Reads []models.Read `json:"reads"`
}

type rejectedRead struct {
	ReadID string `json:"read_id"`
	Error  string `json:"error"`
}

type batchResponse struct {
	Annotations []*models.Annotation `json:"annotations"`
	Rejected    []rejectedRead       `json:"rejected"`
}

type vertexMatchRequest struct {
	Chrom   string          `json:"chromosome"`
	Pos     int64           `json:"position"`
	Strand  models.Strand   `json:"strand"`
	Partner int64           `json:"partner"`
	Role    models.SiteRole `json:"role"`
}

type classifyRequest struct {
	Edges    []int64 `json:"edges"`
	Vertices []int64 `json:"vertices"`
}

type classifyResponse struct {
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

// Annotate handles POST /api/v1/reads/annotate.
func (h *AnnotationHandler) Annotate(c *gin.Context) {
	var read models.Read
	if err := c.ShouldBindJSON(&read); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	ann, err := h.svc.AnnotateRead(c.Request.Context(), read)
	if err != nil {
		respondServiceError(c, h.log, "read.annotate", err)

		return
	}

	middleware.Entry(c, h.log).WithFields(logrus.Fields{
		"read_id":       ann.ReadID,
		"status":        ann.Status,
		"transcript_id": ann.TranscriptID,
	}).Debug("read annotated")

	c.JSON(http.StatusOK, ann)
}

// AnnotateBatch handles POST /api/v1/reads/annotate/batch. Reads are annotated
// in request order; invalid reads are reported and skipped, any other failure
// aborts the remainder of the batch.
func (h *AnnotationHandler) AnnotateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(req.Reads) == 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "reads must not be empty")

		return
	}

	if len(req.Reads) > maxBatchReads {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, fmt.Sprintf("at most %d reads per batch", maxBatchReads))

		return
	}

	resp := batchResponse{
		Annotations: make([]*models.Annotation, 0, len(req.Reads)),
		Rejected:    []rejectedRead{},
	}

	for _, read := range req.Reads {
		ann, err := h.svc.AnnotateRead(c.Request.Context(), read)
		if errors.Is(err, models.ErrInvalidRead) {
			resp.Rejected = append(resp.Rejected, rejectedRead{ReadID: read.ID, Error: err.Error()})

			continue
		}

		if err != nil {
			respondServiceError(c, h.log, "read.annotate_batch", err)

			return
		}

		resp.Annotations = append(resp.Annotations, ann)
	}

	middleware.Entry(c, h.log).WithFields(logrus.Fields{
		"annotated": len(resp.Annotations),
		"rejected":  len(resp.Rejected),
	}).Info("batch annotated")

	c.JSON(http.StatusOK, resp)
}

// MatchVertex handles POST /api/v1/vertices/match.
func (h *AnnotationHandler) MatchVertex(c *gin.Context) {
	var req vertexMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	m, err := h.svc.MatchVertex(c.Request.Context(), engine.VertexQuery{
		Chrom:   req.Chrom,
		Pos:     req.Pos,
		Strand:  req.Strand,
		Partner: req.Partner,
		Role:    req.Role,
	})
	if err != nil {
		respondServiceError(c, h.log, "vertex.match", err)

		return
	}

	c.JSON(http.StatusOK, m)
}

// Classify handles POST /api/v1/transcripts/classify.
func (h *AnnotationHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	m, ok, err := h.svc.ClassifyChain(c.Request.Context(), req.Edges, req.Vertices)
	if err != nil {
		respondServiceError(c, h.log, "transcript.classify", err)

		return
	}

	resp := classifyResponse{Matched: ok}
	if ok {
		resp.Match = &m
	}

	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/stats.
func (h *AnnotationHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context()))
}
