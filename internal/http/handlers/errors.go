package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/platform/apierr"
	"github.com/yungbote/studyvoice-backend/internal/services"
	"github.com/yungbote/studyvoice-backend/internal/speech"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

// serviceErrors maps sentinel errors to their HTTP status and error code.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNothingToSpeak, http.StatusBadRequest, "nothing_to_speak"},
	{services.ErrTextRequired, http.StatusBadRequest, "text_required"},
	{services.ErrUnknownFormat, http.StatusBadRequest, "unknown_format"},
	{services.ErrChunkSizeTooLarge, http.StatusBadRequest, "chunk_size_too_large"},
	{services.ErrStudentIDRequired, http.StatusBadRequest, "student_id_required"},
	{services.ErrInvalidRecordKind, http.StatusBadRequest, "invalid_kind"},
	{services.ErrInvalidTimeWindow, http.StatusBadRequest, "invalid_time_window"},
	{services.ErrInvalidScore, http.StatusBadRequest, "invalid_score"},
	{services.ErrSessionNotFound, http.StatusNotFound, "narration_not_found"},
	{textnorm.ErrUnknownProfile, http.StatusBadRequest, "unknown_profile"},
	{speech.ErrSequenceActive, http.StatusConflict, "narration_active"},
}

func classify(err error) error {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			return apierr.New(se.status, se.code, err)
		}
	}
	return err
}

func respondServiceError(c *gin.Context, err error, fallbackCode string) {
	response.RespondAPIError(c, classify(err), fallbackCode)
}
