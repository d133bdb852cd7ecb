// Package keyword implements an offline classifier matching phrases against utterances.
package keyword

import (
	"context"
	"strings"

	"github.com/viant/turnflow/service/classifier"
)

// Name is reported in user facing notes
const Name = "Keyword"

// Rules maps an intent to the phrases that select it
type Rules map[string][]string

// DefaultRules recognises confirmation and cancellation replies
func DefaultRules() Rules {
	return Rules{
		"Confirm": {"yes", "yep", "yeah", "y", "correct", "that's right", "right", "sure", "ok", "okay", "confirm"},
		"Cancel":  {"no", "nope", "n", "cancel", "wrong", "not correct", "that's wrong", "incorrect"},
	}
}

type phrase struct {
	intent string
	words  []string
}

// Service classifies utterances by phrase lookup
type Service struct {
	phrases []phrase
}

var _ classifier.Classifier = (*Service)(nil)

// New creates a classifier for rules
func New(rules Rules) *Service {
	ret := &Service{}
	for intent, phrases := range rules {
		for _, text := range phrases {
			if words := tokenize(text); len(words) > 0 {
				ret.phrases = append(ret.phrases, phrase{intent: intent, words: words})
			}
		}
	}
	return ret
}

// Name returns classifier name
func (s *Service) Name() string {
	return Name
}

// Configured returns true when at least one phrase is defined
func (s *Service) Configured() bool {
	return len(s.phrases) > 0
}

// Classify scores each intent by its longest phrase found in utterance
func (s *Service) Classify(ctx context.Context, utterance string) (*classifier.Result, error) {
	if !s.Configured() {
		return classifier.NotConfigured(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := tokenize(utterance)
	ret := &classifier.Result{Text: utterance, Intents: map[string]float64{}}
	if len(words) == 0 {
		ret.Intent = classifier.NoneIntent
		return ret, nil
	}
	for _, candidate := range s.phrases {
		if !contains(words, candidate.words) {
			continue
		}
		score := float64(len(candidate.words)) / float64(len(words))
		if score > ret.Intents[candidate.intent] {
			ret.Intents[candidate.intent] = score
		}
	}
	if len(ret.Intents) == 0 {
		ret.Intent = classifier.NoneIntent
		return ret, nil
	}
	ret.Intent = ret.TopIntent()
	ret.Confidence = ret.Intents[ret.Intent]
	return ret, nil
}

func contains(words, sequence []string) bool {
	if len(sequence) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(sequence) <= len(words); i++ {
		for j, word := range sequence {
			if !strings.EqualFold(words[i+j], word) {
				continue outer
			}
		}
		return true
	}
	return false
}
