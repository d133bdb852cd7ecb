package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
)

// DefaultTable holds conversation rows
const DefaultTable = "conversation_state"

// Config represents SQL store settings
type Config struct {
	DSN          string `json:"dsn" yaml:"dsn"`
	Table        string `json:"table,omitempty" yaml:"table,omitempty"`
	MaxOpenConns int    `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty"`
	MaxIdleConns int    `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty"`
}

// Service stores conversations in a PostgreSQL table
type Service struct {
	db    *sql.DB
	table string
}

var _ dao.Service[string, state.Conversation] = (*Service)(nil)

// New opens the database, verifies the connection and creates the table when missing
func New(ctx context.Context, config Config) (*Service, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres unavailable: %w", err)
	}
	srv := NewWithDB(db, config.Table)
	if err := srv.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithDB creates a store using an open database
func NewWithDB(db *sql.DB, table string) *Service {
	if table == "" {
		table = DefaultTable
	}
	return &Service{db: db, table: table}
}

func (s *Service) ensureTable(ctx context.Context) error {
	DDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	active_flow_id TEXT NOT NULL DEFAULT '',
	current_step_index INTEGER NOT NULL DEFAULT 0,
	scratch JSONB,
	awaiting BOOLEAN NOT NULL DEFAULT FALSE,
	turns INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, pq.QuoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, DDL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Save upserts a conversation
func (s *Service) Save(ctx context.Context, conversation *state.Conversation) error {
	if conversation == nil {
		return dao.ErrNilEntity
	}
	if conversation.ID == "" {
		return dao.ErrInvalidID
	}
	scratch, err := json.Marshal(conversation.Scratch)
	if err != nil {
		return fmt.Errorf("failed to marshal scratch: %w", err)
	}
	SQL := fmt.Sprintf(`INSERT INTO %s (id, active_flow_id, current_step_index, scratch, awaiting, turns, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	active_flow_id = EXCLUDED.active_flow_id,
	current_step_index = EXCLUDED.current_step_index,
	scratch = EXCLUDED.scratch,
	awaiting = EXCLUDED.awaiting,
	turns = EXCLUDED.turns,
	updated_at = EXCLUDED.updated_at`, pq.QuoteIdentifier(s.table))
	_, err = s.db.ExecContext(ctx, SQL,
		conversation.ID,
		conversation.ActiveFlowID,
		conversation.CurrentStepIndex,
		scratch,
		conversation.Awaiting,
		conversation.Turns,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", conversation.ID, err)
	}
	return nil
}

// Load retrieves a conversation
func (s *Service) Load(ctx context.Context, id string) (*state.Conversation, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	SQL := s.selectSQL() + " WHERE id = $1"
	row := s.db.QueryRowContext(ctx, SQL, id)
	conversation, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	return conversation, nil
}

// Delete removes a conversation
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	SQL := fmt.Sprintf("DELETE FROM %s WHERE id = $1", pq.QuoteIdentifier(s.table))
	result, err := s.db.ExecContext(ctx, SQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	return nil
}

// List returns conversations matching parameters
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Conversation, error) {
	SQL, args := s.listSQL(parameters)
	rows, err := s.db.QueryContext(ctx, SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()
	var result []*state.Conversation
	for rows.Next() {
		conversation, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		result = append(result, conversation)
	}
	return result, rows.Err()
}

// Close closes the database
func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) selectSQL() string {
	return fmt.Sprintf("SELECT id, active_flow_id, current_step_index, scratch, awaiting, turns, created_at, updated_at FROM %s", pq.QuoteIdentifier(s.table))
}

func (s *Service) listSQL(parameters []*dao.Parameter) (string, []interface{}) {
	var criteria []string
	var args []interface{}
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.ParameterFlowID {
			continue
		}
		var values []string
		switch actual := parameter.Value.(type) {
		case string:
			values = []string{actual}
		case []string:
			values = actual
		default:
			continue
		}
		args = append(args, pq.Array(values))
		criteria = append(criteria, fmt.Sprintf("active_flow_id = ANY($%d)", len(args)))
	}
	SQL := s.selectSQL()
	if len(criteria) > 0 {
		SQL += " WHERE " + strings.Join(criteria, " AND ")
	}
	return SQL + " ORDER BY id", args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(row scanner) (*state.Conversation, error) {
	var conversation state.Conversation
	var scratch []byte
	if err := row.Scan(
		&conversation.ID,
		&conversation.ActiveFlowID,
		&conversation.CurrentStepIndex,
		&scratch,
		&conversation.Awaiting,
		&conversation.Turns,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(scratch) > 0 && string(scratch) != "null" {
		if err := json.Unmarshal(scratch, &conversation.Scratch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scratch: %w", err)
		}
	}
	return &conversation, nil
}
