package fs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/dao/criteria"
)

const ext = ".json"

// Service implements a filesystem-based conversation store; any afs URL
// (file://, mem://, s3://, gs://) can serve as the base location.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, state.Conversation] = (*Service)(nil)

// Save persists a conversation
func (s *Service) Save(ctx context.Context, conversation *state.Conversation) error {
	if conversation == nil {
		return dao.ErrNilEntity
	}
	if conversation.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.conversationURL(conversation.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save conversation to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves a conversation
func (s *Service) Load(ctx context.Context, id string) (*state.Conversation, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.conversationURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if conversation exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}
	var conversation state.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", id, err)
	}
	return &conversation, nil
}

// Delete removes a conversation
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.conversationURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if conversation exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}
	return nil
}

// List returns stored conversations matching parameters
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation files: %w", err)
	}
	var result []*state.Conversation
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ext) {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			slog.Warn("failed to read conversation file", slog.String("url", object.URL()), slog.String("error", err.Error()))
			continue
		}
		var conversation state.Conversation
		if err := json.Unmarshal(data, &conversation); err != nil {
			slog.Warn("failed to unmarshal conversation file", slog.String("url", object.URL()), slog.String("error", err.Error()))
			continue
		}
		if !criteria.FilterByFlow(conversation.ActiveFlowID, parameters) {
			continue
		}
		result = append(result, &conversation)
	}
	return result, nil
}

// conversationURL encodes id so that any conversation id maps to a flat, safe file name
func (s *Service) conversationURL(id string) string {
	return url.Join(s.baseURL, base64.RawURLEncoding.EncodeToString([]byte(id))+ext)
}

// New creates a filesystem conversation store rooted at baseURL
func New(ctx context.Context, baseURL string, fs afs.Service) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
