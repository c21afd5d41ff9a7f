package stores

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresStore implements MessageStore for PostgreSQL databases
type PostgresStore struct {
	db  *gorm.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config *StoreConfig) (*PostgresStore, error) {
	if config.Type != "postgres" {
		return nil, fmt.Errorf("invalid store type for PostgreSQL store: %s", config.Type)
	}

	store := &PostgresStore{
		dsn: config.Connection,
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	return store, nil
}

// NewPostgresStoreSimple creates a new PostgreSQL store with just a DSN
func NewPostgresStoreSimple(dsn string) (*PostgresStore, error) {
	config := NewStoreConfig("postgres", dsn)
	return NewPostgresStore(config)
}

// Connect establishes a connection to the PostgreSQL database
func (s *PostgresStore) Connect() error {
	db, err := gorm.Open(postgres.Open(s.dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	s.db = db

	// Auto-migrate the schema
	if err := s.db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *PostgresStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// SaveMessage saves a message to the database
func (s *PostgresStore) SaveMessage(sessionID, role, messageType string, parts interface{}, functionID string) error {
	return saveMessage(s.db, sessionID, role, messageType, parts, functionID)
}

// FetchHistory retrieves messages for a conversation in sequence order
func (s *PostgresStore) FetchHistory(sessionID string, limit int) ([]Message, error) {
	return fetchHistory(s.db, sessionID, limit)
}

// CreateConversation creates a new conversation record
func (s *PostgresStore) CreateConversation(convoID, userID string) error {
	return createConversation(s.db, convoID, userID)
}

// ListConversations returns all conversation IDs
func (s *PostgresStore) ListConversations() ([]string, error) {
	return listConversations(s.db)
}

// ListConversationsForUser returns all conversations with details for a specific user
func (s *PostgresStore) ListConversationsForUser(userID string) ([]ConversationInfo, error) {
	return listConversationsForUser(s.db, userID)
}

// DeleteConversationsBefore removes conversations idle since before cutoff
func (s *PostgresStore) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	return deleteConversationsBefore(s.db, cutoff)
}
