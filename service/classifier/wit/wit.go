// Package wit implements a classifier backed by Wit.ai.
package wit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/turnflow/service/classifier"
	witai "github.com/wit-ai/wit-go/v2"
)

// Name is reported in user facing notes
const Name = "Wit.ai"

// Client is the subset of the Wit.ai client used by the classifier
type Client interface {
	Parse(req *witai.MessageRequest) (*witai.MessageResponse, error)
}

var _ Client = &witai.Client{}

// Service classifies utterances with Wit.ai
type Service struct {
	client Client
}

var _ classifier.Classifier = (*Service)(nil)

// New creates a classifier for the supplied server access token; an empty token leaves it unconfigured
func New(token string) *Service {
	if token == "" {
		return &Service{}
	}
	return NewWithClient(witai.NewClient(token))
}

// NewWithClient creates a classifier using the supplied client
func NewWithClient(client Client) *Service {
	return &Service{client: client}
}

// Name returns classifier name
func (s *Service) Name() string {
	return Name
}

// Configured returns true when a client is available
func (s *Service) Configured() bool {
	return s.client != nil
}

// Classify parses utterance with Wit.ai
func (s *Service) Classify(ctx context.Context, utterance string) (*classifier.Result, error) {
	if !s.Configured() {
		return classifier.NotConfigured(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	response, err := s.client.Parse(&witai.MessageRequest{Query: utterance})
	if err != nil {
		slog.Error("wit.ai request failed", "error", err)
		return nil, fmt.Errorf("wit.ai request failed: %w", err)
	}
	return convert(utterance, response), nil
}

func convert(utterance string, response *witai.MessageResponse) *classifier.Result {
	ret := &classifier.Result{
		Text:     utterance,
		Intents:  map[string]float64{},
		Entities: map[string]interface{}{},
	}
	if response == nil {
		ret.Intent = classifier.NoneIntent
		return ret
	}
	for _, intent := range response.Intents {
		if intent.Confidence > ret.Intents[intent.Name] {
			ret.Intents[intent.Name] = intent.Confidence
		}
	}
	ret.Intent = ret.TopIntent()
	ret.Confidence = ret.Intents[ret.Intent]
	for name, entities := range response.Entities {
		values := make([]interface{}, 0, len(entities))
		for _, entity := range entities {
			values = append(values, entity.Body)
		}
		ret.Entities[name] = values
	}
	return ret
}
