package blob

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/dao/criteria"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

const ext = ".json"

// Service implements a conversation store on top of gocloud.dev/blob,
// supporting S3, GCS, Azure Blob Storage, local files and memory buckets
type Service struct {
	bucket *blob.Bucket
	prefix string
}

var _ dao.Service[string, state.Conversation] = (*Service)(nil)

// New opens bucketURL; prefix is prepended to every object key
func New(ctx context.Context, bucketURL, prefix string) (*Service, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketURL, err)
	}
	return &Service{bucket: bucket, prefix: prefix}, nil
}

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
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, s.keyFor(conversation.ID), data, opts); err != nil {
		return fmt.Errorf("failed to write conversation %s: %w", conversation.ID, err)
	}
	return nil
}

// Load retrieves a conversation
func (s *Service) Load(ctx context.Context, id string) (*state.Conversation, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := s.bucket.ReadAll(ctx, s.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", id, err)
	}
	return decode(id, data)
}

// Delete removes a conversation
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	err := s.bucket.Delete(ctx, s.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
		}
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

// List returns conversations matching parameters
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Conversation, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix})
	var result []*state.Conversation
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, ext) {
			continue
		}
		data, err := s.bucket.ReadAll(ctx, obj.Key)
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", obj.Key, err)
		}
		conversation, err := decode(obj.Key, data)
		if err != nil {
			return nil, err
		}
		if !criteria.FilterByFlow(conversation.ActiveFlowID, parameters) {
			continue
		}
		result = append(result, conversation)
	}
	return result, nil
}

// Close releases the bucket
func (s *Service) Close() error {
	return s.bucket.Close()
}

func (s *Service) keyFor(id string) string {
	return s.prefix + base64.RawURLEncoding.EncodeToString([]byte(id)) + ext
}

func decode(id string, data []byte) (*state.Conversation, error) {
	var conversation state.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", id, err)
	}
	return &conversation, nil
}
