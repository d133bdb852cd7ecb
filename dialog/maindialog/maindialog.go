// Package maindialog implements the booking conversation: ask what the user
// wants, echo it back for confirmation, classify the reply and loop.
package maindialog

import (
	"context"
	"fmt"

	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/classifier"
)

// FlowID identifies the booking flow
const FlowID = "booking"

// Step names
const (
	StepIntro   = "intro"
	StepConfirm = "confirm"
	StepAct     = "act"
	StepFinal   = "final"
)

// Scratch keys
const (
	KeyRestartMsg  = "restartMsg"
	KeyUtterance   = "utterance"
	KeyReply       = "reply"
	KeyConfirmed   = "confirmed"
	KeyDestination = "destination"
	KeyOrigin      = "origin"
	KeyTravelDate  = "travelDate"
)

// Intents recognised by the act step
const (
	IntentConfirm = "Confirm"
	IntentCancel  = "Cancel"
)

const (
	defaultPrompt = "What can I help you with today?"
	restartPrompt = "What else can I do for you?"
	confirmed     = "Got it!"
)

// Dialog holds the classifier used by the booking steps
type Dialog struct {
	classifier classifier.Classifier
}

// New creates the dialog
func New(c classifier.Classifier) (*Dialog, error) {
	if c == nil {
		return nil, fmt.Errorf("maindialog: classifier is required")
	}
	return &Dialog{classifier: c}, nil
}

// NewFlow creates the booking flow for c
func NewFlow(c classifier.Classifier) (*model.Flow, error) {
	dialog, err := New(c)
	if err != nil {
		return nil, err
	}
	return dialog.Flow(), nil
}

// Flow returns the booking flow
func (d *Dialog) Flow() *model.Flow {
	flow := model.NewFlow(FlowID,
		model.NewStep(StepIntro, d.intro),
		model.NewStep(StepConfirm, d.confirm),
		model.NewStep(StepAct, d.act),
		model.NewStep(StepFinal, d.final),
	)
	flow.Description = "Books a flight after confirming the request"
	return flow
}

func (d *Dialog) notConfigured() model.Outcome {
	return model.End().Say(fmt.Sprintf("NOTE: %s is not configured. This dialog is over", d.classifier.Name()))
}

func (d *Dialog) intro(ctx context.Context, scratch state.Scratch, input *model.TurnInput) (model.Outcome, error) {
	if !d.classifier.Configured() {
		return d.notConfigured(), nil
	}
	if model.Resumed(ctx) {
		return model.Next(map[string]interface{}{KeyUtterance: input.Text}), nil
	}
	prompt := scratch.String(KeyRestartMsg)
	if prompt == "" {
		prompt = defaultPrompt
	}
	return model.Prompt(prompt), nil
}

func (d *Dialog) confirm(ctx context.Context, scratch state.Scratch, input *model.TurnInput) (model.Outcome, error) {
	if model.Resumed(ctx) {
		return model.Next(map[string]interface{}{KeyReply: input.Text}), nil
	}
	return model.Prompt(fmt.Sprintf("You said %s. Is this correct?", scratch.String(KeyUtterance))), nil
}

func (d *Dialog) act(ctx context.Context, scratch state.Scratch, input *model.TurnInput) (model.Outcome, error) {
	reply := input.Text
	if !model.Resumed(ctx) && scratch.Has(KeyReply) {
		reply = scratch.String(KeyReply)
	}
	result, err := d.classifier.Classify(ctx, reply)
	if err != nil {
		return model.Outcome{}, err
	}
	if result == nil || result.Unconfigured {
		return d.notConfigured(), nil
	}
	intent := result.TopIntent()
	switch intent {
	case IntentConfirm:
		payload := map[string]interface{}{KeyConfirmed: true}
		for entity, key := range map[string]string{"To": KeyDestination, "From": KeyOrigin, "TravelDate": KeyTravelDate} {
			if value, ok := result.Entity(entity); ok {
				payload[key] = value
			}
		}
		return model.Next(payload).Say(confirmed), nil
	case IntentCancel:
		return model.Next(map[string]interface{}{KeyConfirmed: false}), nil
	}
	return model.Prompt(fmt.Sprintf("Sorry, I didn't get that. Please try replying in a different way? (DEV NOTE: intent was %s)", intent)), nil
}

// Booking holds the travel details collected from classifier entities
type Booking struct {
	Confirmed   bool   `json:"confirmed"`
	Destination string `json:"destination,omitempty"`
	Origin      string `json:"origin,omitempty"`
	TravelDate  string `json:"travelDate,omitempty"`
}

// Complete returns true when every travel detail is known
func (b *Booking) Complete() bool {
	return b.Destination != "" && b.Origin != "" && b.TravelDate != ""
}

func (d *Dialog) final(ctx context.Context, scratch state.Scratch, input *model.TurnInput) (model.Outcome, error) {
	outcome := model.Restart(FlowID, map[string]interface{}{KeyRestartMsg: restartPrompt})
	booking := &Booking{}
	if err := scratch.Decode(booking); err != nil {
		return model.Outcome{}, err
	}
	if !booking.Confirmed || !booking.Complete() {
		return outcome, nil
	}
	return outcome.Say(fmt.Sprintf("I have you booked to %s from %s on %s.", booking.Destination, booking.Origin, booking.TravelDate)), nil
}
