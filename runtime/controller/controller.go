// Package controller drives multi-step conversation flows one user turn at a time.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/viant/turnflow/internal/clock"
	"github.com/viant/turnflow/internal/idgen"
	"github.com/viant/turnflow/log"
	"github.com/viant/turnflow/metrics"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/progress"
	"github.com/viant/turnflow/runtime/interrupt"
	"github.com/viant/turnflow/runtime/lock"
	"github.com/viant/turnflow/service/channel"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/event"
	"github.com/viant/turnflow/tracing"
)

const eventTimeout = 250 * time.Millisecond

// EventPublisher receives a turn completed event per handled turn
type EventPublisher interface {
	Publish(ctx context.Context, event *event.Event[model.TurnReport]) error
}

// Controller routes turns to the current step of each conversation's active flow
type Controller struct {
	store           dao.Service[string, state.Conversation]
	channel         channel.Channel
	defaultFlowID   string
	locker          lock.Locker
	interrupts      *interrupt.Set
	events          EventPublisher
	progress        *progress.Progress
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             clock.Func
	maxStepsPerTurn int

	mu      sync.RWMutex
	flows   map[string]*model.Flow
	pending []*model.Flow
}

// New creates a controller; store, channel and default flow are required
func New(options ...Option) (*Controller, error) {
	ret := &Controller{
		locker:          lock.New(),
		logger:          slog.Default(),
		now:             clock.Now,
		maxStepsPerTurn: 1,
		flows:           map[string]*model.Flow{},
	}
	for _, opt := range options {
		opt(ret)
	}
	switch {
	case ret.store == nil:
		return nil, fmt.Errorf("conversation store was empty")
	case ret.channel == nil:
		return nil, fmt.Errorf("reply channel was empty")
	case ret.defaultFlowID == "":
		return nil, fmt.Errorf("default flow was empty")
	}
	for _, flow := range ret.pending {
		if err := ret.RegisterFlow(flow); err != nil {
			return nil, err
		}
	}
	ret.pending = nil
	return ret, nil
}

// RegisterFlow validates and registers a flow under its id
func (c *Controller) RegisterFlow(flow *model.Flow) error {
	if flow == nil {
		return fmt.Errorf("%w: flow was nil", ErrInvalidFlow)
	}
	if issues := flow.Validate(); len(issues) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFlow, errors.Join(issues...))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.flows[flow.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFlow, flow.ID)
	}
	c.flows[flow.ID] = flow
	return nil
}

// Flow returns a registered flow
func (c *Controller) Flow(id string) (*model.Flow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	flow, ok := c.flows[id]
	return flow, ok
}

// Flows returns registered flow ids in order
func (c *Controller) Flows() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret := make([]string, 0, len(c.flows))
	for id := range c.flows {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

// DefaultFlowID returns the flow started for idle conversations
func (c *Controller) DefaultFlowID() string {
	return c.defaultFlowID
}

// Conversation returns the persisted state of a conversation
func (c *Controller) Conversation(ctx context.Context, conversationID string) (*state.Conversation, error) {
	return c.store.Load(ctx, conversationID)
}

// Reset deletes a conversation so that its next turn starts the default flow
func (c *Controller) Reset(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return ErrInvalidConversationID
	}
	unlock, err := c.locker.Lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()
	return c.store.Delete(ctx, conversationID)
}

// HandleTurn processes one user turn. The state change is persisted before any reply is sent:
// a *StoreError means nothing changed and nothing was sent, a *ChannelError means the state
// change is durable and the report is returned with the error.
func (c *Controller) HandleTurn(ctx context.Context, conversationID string, input *model.TurnInput) (report *model.TurnReport, err error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}
	started := c.now()
	input = c.normalize(input, started)

	ctx, span := tracing.StartSpan(ctx, "turnflow.turn", "SERVER")
	span.WithAttributes(map[string]string{"conversation.id": conversationID, "turn.id": input.ID})
	defer func() { tracing.EndSpan(span, err) }()

	unlock, err := c.locker.Lock(ctx, conversationID)
	if err != nil {
		c.fail(metrics.ErrorKindLock, conversationID, input.ID, err)
		return nil, err
	}
	release := sync.OnceFunc(unlock)
	defer release()

	conversation, err := c.load(ctx, conversationID, started)
	if err != nil {
		c.fail(metrics.ErrorKindStore, conversationID, input.ID, err)
		return nil, err
	}
	if !conversation.IsActive() {
		conversation.Start(c.defaultFlowID, nil)
	}
	report = &model.TurnReport{
		ConversationID: conversationID,
		TurnID:         input.ID,
		FlowID:         conversation.ActiveFlowID,
		StepIndex:      conversation.CurrentStepIndex,
	}

	var replies []string
	if matched, ok := c.interrupts.Match(input.Text); ok {
		replies = c.interrupt(conversation, matched, report)
	} else if replies, err = c.runSteps(ctx, conversation, input, report); err != nil {
		kind := metrics.ErrorKindFlow
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			kind = metrics.ErrorKindStep
		}
		c.fail(kind, conversationID, input.ID, err)
		return nil, err
	}

	conversation.Turns++
	conversation.UpdatedAt = c.now()
	if err = c.store.Save(ctx, conversation); err != nil {
		err = &StoreError{Op: "save", ConversationID: conversationID, Err: err}
		c.fail(metrics.ErrorKindStore, conversationID, input.ID, err)
		return nil, err
	}

	report.NextFlowID = conversation.ActiveFlowID
	report.NextStepIndex = conversation.CurrentStepIndex
	report.Messages = replies
	if err = c.send(ctx, conversationID, replies); err != nil {
		c.fail(metrics.ErrorKindChannel, conversationID, input.ID, err)
	}
	report.Elapsed = c.now().Sub(started)
	release()
	c.completed(ctx, report)
	span.WithAttributes(map[string]string{"flow.id": report.FlowID, "step.name": report.Step, "turn.result": string(report.Result)})
	return report, err
}

func (c *Controller) normalize(input *model.TurnInput, now time.Time) *model.TurnInput {
	ret := model.TurnInput{}
	if input != nil {
		ret = *input
	}
	if ret.ID == "" {
		ret.ID = idgen.New()
	}
	if ret.ReceivedAt.IsZero() {
		ret.ReceivedAt = now
	}
	return &ret
}

func (c *Controller) load(ctx context.Context, conversationID string, now time.Time) (*state.Conversation, error) {
	conversation, err := c.store.Load(ctx, conversationID)
	if errors.Is(err, dao.ErrNotFound) {
		return state.NewConversation(conversationID, now), nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", ConversationID: conversationID, Err: err}
	}
	return conversation.Clone(), nil
}

func (c *Controller) interrupt(conversation *state.Conversation, matched *interrupt.Interrupt, report *model.TurnReport) []string {
	report.Interrupt = matched.Name
	switch matched.Action {
	case interrupt.ActionCancel:
		conversation.Clear()
		report.Result = model.ResultCompleted
	default:
		report.Result = model.ResultAwaitingInput
	}
	if matched.Message == "" {
		return nil
	}
	return []string{matched.Message}
}

// runSteps executes the current step and, when chaining is enabled, the steps reached by Next or Restart
func (c *Controller) runSteps(ctx context.Context, conversation *state.Conversation, input *model.TurnInput, report *model.TurnReport) ([]string, error) {
	var replies []string
	for executed := 0; executed < c.maxStepsPerTurn; executed++ {
		flow, ok := c.Flow(conversation.ActiveFlowID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, conversation.ActiveFlowID)
		}
		step, ok := flow.Step(conversation.CurrentStepIndex)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d]", ErrStepIndexOutOfRange, flow.ID, conversation.CurrentStepIndex)
		}
		if executed == 0 {
			report.Step = step.Name
		}
		stepContext := &model.StepContext{
			ConversationID: conversation.ID,
			TurnID:         input.ID,
			FlowID:         flow.ID,
			Step:           step.Name,
			Index:          conversation.CurrentStepIndex,
			Resumed:        executed == 0 && conversation.Awaiting,
		}
		outcome, err := c.runStep(model.WithStepContext(ctx, stepContext), step, conversation.Scratch.Clone(), input)
		if err != nil {
			return nil, &StepError{ConversationID: conversation.ID, FlowID: flow.ID, Step: step.Name, Index: stepContext.Index, Err: err}
		}
		c.logger.Debug("step executed",
			log.ConversationID(conversation.ID),
			log.FlowID(flow.ID),
			log.Step(step.Name, stepContext.Index),
			slog.String("outcome", outcome.Kind.String()),
			slog.Bool("resumed", stepContext.Resumed))
		replies = append(replies, outcome.Replies()...)
		if report.Result, err = c.apply(conversation, flow, outcome); err != nil {
			return nil, err
		}
		if report.Result != model.ResultAdvanced && report.Result != model.ResultRestarted {
			break
		}
	}
	return replies, nil
}

func (c *Controller) runStep(ctx context.Context, step *model.Step, scratch state.Scratch, input *model.TurnInput) (outcome model.Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "turnflow.step", "INTERNAL")
	span.WithAttributes(map[string]string{"step.name": step.Name})
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
		tracing.EndSpan(span, err)
	}()
	stepInput := *input
	return step.Run(ctx, scratch, &stepInput)
}

// apply transitions conversation according to outcome
func (c *Controller) apply(conversation *state.Conversation, flow *model.Flow, outcome model.Outcome) (model.Result, error) {
	switch outcome.Kind {
	case model.OutcomePrompt:
		conversation.Park()
		return model.ResultAwaitingInput, nil
	case model.OutcomeNext:
		conversation.Advance(outcome.Payload)
		if conversation.CurrentStepIndex >= flow.Len() {
			conversation.Clear()
			return model.ResultCompleted, nil
		}
		return model.ResultAdvanced, nil
	case model.OutcomeRestart:
		flowID := outcome.FlowID
		if flowID == "" {
			flowID = flow.ID
		}
		if _, ok := c.Flow(flowID); !ok {
			return "", fmt.Errorf("%w: restart target %s", ErrUnknownFlow, flowID)
		}
		conversation.Start(flowID, outcome.Payload)
		return model.ResultRestarted, nil
	case model.OutcomeEnd:
		conversation.Clear()
		return model.ResultCompleted, nil
	}
	return "", fmt.Errorf("unsupported outcome: %v", outcome.Kind)
}

func (c *Controller) send(ctx context.Context, conversationID string, replies []string) error {
	for i, reply := range replies {
		if err := c.channel.Send(ctx, conversationID, reply); err != nil {
			return &ChannelError{ConversationID: conversationID, Delivered: i, Err: err}
		}
	}
	return nil
}

func (c *Controller) completed(ctx context.Context, report *model.TurnReport) {
	delta := progress.DeltaOf(report.Result)
	if report.Interrupt != "" {
		delta.Interrupts = 1
	}
	c.progress.Update(delta)
	c.metrics.RecordTurn(report.FlowID, report.Result, report.Elapsed)
	c.logger.Info("turn handled",
		log.ConversationID(report.ConversationID),
		log.TurnID(report.TurnID),
		log.FlowID(report.FlowID),
		log.Step(report.Step, report.StepIndex),
		log.Result(report.Result),
		slog.Int("replies", len(report.Messages)))
	if c.events == nil {
		return
	}
	eventCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	evt := event.NewEvent(&event.Context{
		ConversationID: report.ConversationID,
		TurnID:         report.TurnID,
		FlowID:         report.FlowID,
		Step:           report.Step,
		EventType:      event.TypeTurnCompleted,
		TimeTakenMs:    int(report.Elapsed.Milliseconds()),
	}, *report)
	if err := c.events.Publish(eventCtx, evt); err != nil {
		c.logger.Warn("failed to publish turn event", log.ConversationID(report.ConversationID), log.Error(err))
	}
}

func (c *Controller) fail(kind, conversationID, turnID string, err error) {
	c.progress.Update(progress.Delta{Failures: 1})
	c.metrics.RecordError(kind)
	c.logger.Error("turn failed",
		log.ConversationID(conversationID),
		log.TurnID(turnID),
		slog.String("kind", kind),
		log.Error(err))
}
