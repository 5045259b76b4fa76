package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/services"
)

type ProfileHandler struct {
	text services.TextService
}

func NewProfileHandler(text services.TextService) *ProfileHandler {
	return &ProfileHandler{text: text}
}

type profileView struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

// GET /api/profiles
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles := h.text.Profiles()
	out := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileView{Name: p.Name, Rules: p.Rules.Names()})
	}
	response.RespondOK(c, gin.H{"profiles": out})
}
