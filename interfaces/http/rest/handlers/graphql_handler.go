package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"graphgate/interfaces/graphql/federation"
	apperrors "graphgate/pkg/errors"
	"graphgate/pkg/utils"
)

// DefaultMaxBodyBytes caps the size of a GraphQL request body.
const DefaultMaxBodyBytes = 1 << 20

// ErrorRecorder counts GraphQL errors by their extensions code.
type ErrorRecorder interface {
	RecordGraphQLError(code string)
}

// GraphQLRequest is the POST body of a GraphQL-over-HTTP request.
type GraphQLRequest struct {
	Query         string                 `json:"query" validate:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler executes requests against the composed schema.
type GraphQLHandler struct {
	schema       *federation.Schema
	errors       *apperrors.ErrorHandler
	recorder     ErrorRecorder
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewGraphQLHandler creates a new GraphQL handler. recorder may be nil.
func NewGraphQLHandler(
	schema *federation.Schema,
	errorHandler *apperrors.ErrorHandler,
	recorder ErrorRecorder,
	logger *zap.Logger,
) *GraphQLHandler {
	return &GraphQLHandler{
		schema:       schema,
		errors:       errorHandler,
		recorder:     recorder,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// ServeHTTP handles POST /graphql. Bodies that are not a GraphQL request are
// rejected with 400 and an errors envelope; everything else is answered with
// 200 and the execution result.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.reject(w, r, apperrors.NewValidationError("request body is too large or unreadable").WithCause(err))
		return
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.reject(w, r, apperrors.NewValidationError("request body is not valid JSON").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.reject(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	result := h.schema.Execute(r.Context(), federation.Request{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})

	for _, e := range result.Errors {
		code, _ := e.Extensions["code"].(string)
		if code == "" {
			// Parse and validation failures carry no extensions.
			code = string(apperrors.ErrorTypeValidation)
		}
		h.record(code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode GraphQL response", zap.Error(err))
	}
}

func (h *GraphQLHandler) reject(w http.ResponseWriter, r *http.Request, err *apperrors.AppError) {
	h.record(string(err.Type))
	h.errors.Handle(w, r, err)
}

func (h *GraphQLHandler) record(code string) {
	if h.recorder != nil {
		h.recorder.RecordGraphQLError(code)
	}
}
