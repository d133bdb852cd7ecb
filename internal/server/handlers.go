package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
)

var (
	ErrFlowNotFound      = errors.New("flow not found")
	ErrGetConversation   = errors.New("failed to get conversation")
	ErrResetConversation = errors.New("failed to reset conversation")
)

// HealthResponse reports liveness
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// FlowResponse describes a registered flow
type FlowResponse struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps"`
	Default     bool     `json:"default,omitempty"`
}

// FlowsListResponse lists registered flows
type FlowsListResponse struct {
	Flows []*FlowResponse `json:"flows"`
	Count int             `json:"count"`
}

// ConversationResponse wraps a conversation with its current step name
type ConversationResponse struct {
	*state.Conversation
	CurrentStep string `json:"currentStep,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Truncate(time.Second).String(),
	})
}

func (s *Server) flowResponse(id string) (*FlowResponse, bool) {
	flow, ok := s.controller.Flow(id)
	if !ok {
		return nil, false
	}
	return &FlowResponse{
		ID:          flow.ID,
		Description: flow.Description,
		Steps:       flow.StepNames(),
		Default:     flow.ID == s.controller.DefaultFlowID(),
	}, true
}

func (s *Server) listFlows(c *gin.Context) {
	ret := FlowsListResponse{Flows: []*FlowResponse{}}
	for _, id := range s.controller.Flows() {
		if flow, ok := s.flowResponse(id); ok {
			ret.Flows = append(ret.Flows, flow)
		}
	}
	ret.Count = len(ret.Flows)
	c.JSON(http.StatusOK, ret)
}

func (s *Server) getFlow(c *gin.Context) {
	id := c.Param("flowID")
	flow, ok := s.flowResponse(id)
	if !ok {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("%w: %s", ErrFlowNotFound, id))
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (s *Server) getConversation(c *gin.Context) {
	id := c.Param("conversationID")
	conversation, err := s.controller.Conversation(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dao.ErrNotFound) {
			status = http.StatusNotFound
		}
		errorJSON(c, status, fmt.Errorf("%w: %v", ErrGetConversation, err))
		return
	}
	ret := ConversationResponse{Conversation: conversation}
	if flow, ok := s.controller.Flow(conversation.ActiveFlowID); ok {
		if step, ok := flow.Step(conversation.CurrentStepIndex); ok {
			ret.CurrentStep = step.Name
		}
	}
	c.JSON(http.StatusOK, ret)
}

func (s *Server) resetConversation(c *gin.Context) {
	id := c.Param("conversationID")
	if err := s.controller.Reset(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dao.ErrNotFound) {
			status = http.StatusNotFound
		}
		errorJSON(c, status, fmt.Errorf("%w: %v", ErrResetConversation, err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	snapshot := s.progress.Snapshot()
	c.JSON(http.StatusOK, &snapshot)
}
