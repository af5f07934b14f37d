package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/interview"
)

// ErrorBody is the error object of a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

var statusByKind = map[string]int{
	"unsupported_format":  http.StatusUnsupportedMediaType,
	"extraction_error":    http.StatusUnprocessableEntity,
	"generation_error":    http.StatusBadGateway,
	"empty_answer":        http.StatusUnprocessableEntity,
	"incomplete_feedback": http.StatusConflict,
	"invalid_index":       http.StatusNotFound,
	"invalid_transition":  http.StatusConflict,
	"answer_locked":       http.StatusConflict,
	"invalid_category":    http.StatusBadRequest,
}

// statusFor maps an interview error to its HTTP status.
func statusFor(err error) int {
	if status, ok := statusByKind[interview.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, status int, code, message string) {
	s.logger.Warn("request failed",
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
	)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// failTransition reports a rejected transition together with the unchanged session.
func (s *Server) failTransition(c *gin.Context, session *interview.Session, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "unexpected server error"
	}

	s.logger.Warn("transition failed",
		zap.Int("status", status),
		zap.String("kind", interview.Kind(err)),
		zap.Error(err),
		zap.String("request_id", c.GetString(requestIDKey)),
	)

	body := gin.H{"error": ErrorBody{Code: interview.Kind(err), Message: message}}
	if session != nil {
		body["session"] = session.Snapshot()
	}
	c.AbortWithStatusJSON(status, body)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
