package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"newsletterd/internal/domain"
	"newsletterd/internal/engine"
)

type NewsletterHandler struct {
	fanout *engine.FanOutEngine
}

func NewNewsletterHandler(f *engine.FanOutEngine) *NewsletterHandler {
	return &NewsletterHandler{fanout: f}
}

type publishIssueRequest struct {
	Title   string `json:"title"`
	Content *struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	} `json:"content"`
}

type publishIssueResponse struct {
	EmailsSent int `json:"emails_sent"`
}

// Publish handles POST /newsletters. The payload is decoded strictly so
// malformed shapes are rejected before any storage or email access.
func (h *NewsletterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req publishIssueRequest
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var content *domain.IssueContent
	if req.Content != nil {
		content = &domain.IssueContent{Text: req.Content.Text, HTML: req.Content.HTML}
	}

	issue, err := domain.NewIssue(req.Title, content)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sent, err := h.fanout.Publish(r.Context(), issue)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to publish newsletter")
		return
	}

	respondJSON(w, http.StatusOK, publishIssueResponse{EmailsSent: sent})
}
