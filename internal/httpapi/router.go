// Package httpapi exposes the quiz engine over JSON HTTP. There is no
// conversation bookkeeping here: every state is read back from the store.
package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/gin-gonic/gin"
)

type eventRequest struct {
	Type string `json:"type" binding:"required"`
	Text string `json:"text"`
}

type eventResponse struct {
	Messages []string `json:"messages"`
	State    string   `json:"state"`
}

type userResponse struct {
	State    string `json:"state"`
	Question string `json:"question,omitempty"`
	Score    int    `json:"score"`
}

type handler struct {
	engine *service.Engine
	store  service.SessionStore
}

// NewRouter wires the quiz routes onto a fresh gin engine.
func NewRouter(engine *service.Engine, store service.SessionStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handler{engine: engine, store: store}
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1/users/:uid")
	v1.POST("/events", h.postEvent)
	v1.GET("", h.getUser)

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) postEvent(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := service.ParseEventKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.engine.Handle(c.Request.Context(), uid, service.Event{Kind: kind, Text: req.Text})
	if err != nil {
		h.storeFailure(c, uid, err)
		return
	}

	c.JSON(http.StatusOK, eventResponse{Messages: reply.Messages, State: reply.Next.String()})
}

func (h *handler) getUser(c *gin.Context) {
	uid, ok := userParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	state, err := h.engine.State(ctx, uid)
	if err != nil {
		h.storeFailure(c, uid, err)
		return
	}
	question, _, err := h.store.CurrentQuestion(ctx, uid)
	if err != nil {
		h.storeFailure(c, uid, err)
		return
	}
	score, err := h.store.Score(ctx, uid)
	if err != nil {
		h.storeFailure(c, uid, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{State: state.String(), Question: question, Score: score})
}

func (h *handler) storeFailure(c *gin.Context, uid service.UserID, err error) {
	log.Printf("Error serving user %s: %v", uid, err)
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, eventResponse{Messages: []string{h.engine.Texts().TryLater}})
}

func userParam(c *gin.Context) (service.UserID, bool) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return "", false
	}
	return service.UserID(uid), true
}
