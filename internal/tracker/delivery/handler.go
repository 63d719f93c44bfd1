package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"xpress-backend/internal/tracker/domain"
	"xpress-backend/internal/tracker/dto"
	"xpress-backend/internal/tracker/usecase"
	"xpress-backend/pkg/ai"
	"xpress-backend/pkg/xapi"
)

type TrackerHandler struct {
	trackerUsecase  usecase.TrackerUsecase
	replyUsecase    usecase.ReplyUsecase
	dispatchUsecase usecase.DispatchUsecase
}

func NewTrackerHandler(tracker usecase.TrackerUsecase, reply usecase.ReplyUsecase, dispatch usecase.DispatchUsecase) *TrackerHandler {
	return &TrackerHandler{
		trackerUsecase:  tracker,
		replyUsecase:    reply,
		dispatchUsecase: dispatch,
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var rateLimited *domain.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             err.Error(),
			"minutes_remaining": rateLimited.Minutes,
		})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, xapi.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateTracking),
		errors.Is(err, domain.ErrAlreadySent),
		errors.Is(err, domain.ErrNotQueued):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyReply):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, xapi.ErrAuth):
		c.JSON(http.StatusBadGateway, gin.H{"error": "x api rejected the application credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

func (h *TrackerHandler) Track(c *gin.Context) {
	var req dto.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.trackerUsecase.Track(c.Request.Context(), userID(c), req.Handle, req.Keywords)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *TrackerHandler) Untrack(c *gin.Context) {
	handle := c.Param("handle")
	if err := h.trackerUsecase.Untrack(userID(c), handle); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account untracked"})
}

// TrackedAccounts returns tracked accounts with their posts, refreshed from
// upstream when the per-user window allows it, otherwise from the cache with
// rate-limit metadata attached.
func (h *TrackerHandler) TrackedAccounts(c *gin.Context) {
	view, err := h.trackerUsecase.GetRefreshedOrCachedView(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TrackerHandler) Suggest(c *gin.Context) {
	var req dto.SuggestRequest
	// Body is optional; tone and context fall back to the stored profile.
	_ = c.ShouldBindJSON(&req)

	post, err := h.trackerUsecase.Suggest(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *TrackerHandler) SaveDraft(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.replyUsecase.Edit(userID(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *TrackerHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	_ = c.ShouldBindJSON(&req) // body optional, approves the stored draft as-is

	post, err := h.replyUsecase.Approve(userID(c), c.Param("id"), userID(c), domain.Reply{
		Text: req.Text,
		Tone: req.Tone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *TrackerHandler) Unapprove(c *gin.Context) {
	post, err := h.replyUsecase.Unapprove(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *TrackerHandler) Queue(c *gin.Context) {
	posts, err := h.replyUsecase.ListQueue(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": posts})
}

// Dispatch sends every queued reply in approval order. Partial failure is a
// 200 with per-item outcomes; only a queue load failure is an error.
func (h *TrackerHandler) Dispatch(c *gin.Context) {
	results, err := h.dispatchUsecase.DispatchAll(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"sent":    sent,
		"failed":  len(results) - sent,
	})
}

func (h *TrackerHandler) TestReply(c *gin.Context) {
	var req dto.TestReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.trackerUsecase.TestReply(c.Request.Context(), userID(c), req.Text, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *TrackerHandler) GetContext(c *gin.Context) {
	rc, err := h.trackerUsecase.GetContext(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": rc})
}

func (h *TrackerHandler) SaveContext(c *gin.Context) {
	var req dto.ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc, err := h.trackerUsecase.SaveContext(userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": rc})
}
