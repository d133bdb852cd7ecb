// Package luis implements a classifier backed by the LUIS v3 prediction API.
package luis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/viant/scy"
	"github.com/viant/turnflow/service/classifier"
)

const (
	// Name is reported in user facing notes
	Name = "LUIS"

	keyHeader   = "Ocp-Apim-Subscription-Key"
	defaultSlot = "production"
	instanceKey = "$instance"
)

// Config represents LUIS application settings
type Config struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AppID    string `json:"appId,omitempty" yaml:"appId,omitempty"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	// KeySecretURL points at a scy encrypted key, used when Key is empty
	KeySecretURL string        `json:"keySecretURL,omitempty" yaml:"keySecretURL,omitempty"`
	KeySecretKey string        `json:"keySecretKey,omitempty" yaml:"keySecretKey,omitempty"`
	Slot         string        `json:"slot,omitempty" yaml:"slot,omitempty"`
	// Timeout bounds a single request; zero leaves it to the caller's context
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Service queries a LUIS application
type Service struct {
	config     Config
	httpClient *http.Client
}

var _ classifier.Classifier = (*Service)(nil)

// Option customises the service
type Option func(s *Service)

// WithHTTPClient overrides the http client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
	}
}

// New creates a LUIS classifier, revealing the subscription key from scy when configured
func New(ctx context.Context, config Config, options ...Option) (*Service, error) {
	if config.Slot == "" {
		config.Slot = defaultSlot
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	if config.Key == "" && config.KeySecretURL != "" {
		key, err := revealKey(ctx, config.KeySecretURL, config.KeySecretKey)
		if err != nil {
			return nil, err
		}
		config.Key = key
	}
	ret := &Service{config: config, httpClient: &http.Client{Timeout: config.Timeout}}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

func revealKey(ctx context.Context, URL, key string) (string, error) {
	resource := scy.NewResource(nil, URL, key)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load LUIS key from %s: %w", URL, err)
	}
	return strings.TrimSpace(secret.String()), nil
}

// Name returns classifier name
func (s *Service) Name() string {
	return Name
}

// Configured returns true when endpoint, application and key are set
func (s *Service) Configured() bool {
	return s.config.Endpoint != "" && s.config.AppID != "" && s.config.Key != ""
}

// Classify sends utterance to the prediction endpoint
func (s *Service) Classify(ctx context.Context, utterance string) (*classifier.Result, error) {
	if !s.Configured() {
		return classifier.NotConfigured(), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.predictURL(utterance), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create LUIS request: %w", err)
	}
	req.Header.Set(keyHeader, s.config.Key)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("LUIS request failed", "app_id", s.config.AppID, "error", err)
		return nil, fmt.Errorf("LUIS request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read LUIS response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("LUIS returned unexpected status", "app_id", s.config.AppID, "status", resp.StatusCode)
		return nil, fmt.Errorf("LUIS returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error.message").String())
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("LUIS returned invalid JSON")
	}
	return parse(utterance, gjson.ParseBytes(body)), nil
}

func (s *Service) predictURL(utterance string) string {
	query := url.Values{}
	query.Set("query", utterance)
	query.Set("show-all-intents", "true")
	return fmt.Sprintf("%s/luis/prediction/v3.0/apps/%s/slots/%s/predict?%s",
		s.config.Endpoint, url.PathEscape(s.config.AppID), url.PathEscape(s.config.Slot), query.Encode())
}

func parse(utterance string, response gjson.Result) *classifier.Result {
	prediction := response.Get("prediction")
	ret := &classifier.Result{
		Text:     utterance,
		Intent:   prediction.Get("topIntent").String(),
		Intents:  map[string]float64{},
		Entities: map[string]interface{}{},
	}
	prediction.Get("intents").ForEach(func(name, value gjson.Result) bool {
		ret.Intents[name.String()] = value.Get("score").Float()
		return true
	})
	if ret.Intent == "" {
		ret.Intent = ret.TopIntent()
	}
	ret.Confidence = ret.Intents[ret.Intent]
	prediction.Get("entities").ForEach(func(name, value gjson.Result) bool {
		if name.String() == instanceKey {
			return true
		}
		ret.Entities[name.String()] = entityValues(value)
		return true
	})
	return ret
}

// entityValues flattens list entities ([["Paris"]]) and keeps other shapes as decoded
func entityValues(value gjson.Result) interface{} {
	if !value.IsArray() {
		return value.Value()
	}
	var values []interface{}
	for _, item := range value.Array() {
		if item.IsArray() {
			if first := item.Get("0"); first.Exists() {
				values = append(values, first.Value())
			}
			continue
		}
		values = append(values, item.Value())
	}
	return values
}
