package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

// NoteKind identifies the typed record schema a note is written under.
type NoteKind string

const (
	NoteKindText    NoteKind = "text-note"
	NoteKindAudio   NoteKind = "audio-note"
	NoteKindImage   NoteKind = "image-note"
	NoteKindSummary NoteKind = "summary-note"
)

// NoteRecord is the persisted note. Fields are populated per kind: summary
// notes carry Summary/Category, audio notes carry DurationMS, image notes
// carry Link. Title always follows the truncation convention in Title.
type NoteRecord struct {
	NoteID     string   `dynamodbav:"noteId" json:"noteId"`
	Kind       NoteKind `dynamodbav:"kind" json:"kind"`
	SenderID   string   `dynamodbav:"senderId" json:"senderId"`
	Title      string   `dynamodbav:"title" json:"title"`
	Content    string   `dynamodbav:"content" json:"content"`
	Summary    string   `dynamodbav:"summary,omitempty" json:"summary,omitempty"`
	Category   string   `dynamodbav:"category,omitempty" json:"category,omitempty"`
	Tags       []string `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	Link       string   `dynamodbav:"link,omitempty" json:"link,omitempty"`
	DurationMS int64    `dynamodbav:"durationMs,omitempty" json:"durationMs,omitempty"`
	CreatedAt  string   `dynamodbav:"createdAt" json:"createdAt"`
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store persists note records to DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("notes: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("notes: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// CreateNote inserts a new note record, filling in id and timestamp.
// Callers treat a non-nil error as "persist failed" and carry on; the error
// never propagates past the pipeline.
func (s *Store) CreateNote(ctx context.Context, note *NoteRecord) error {
	if note == nil {
		return errors.New("notes: note cannot be nil")
	}
	if note.NoteID == "" {
		note.NoteID = uuid.NewString()
	}
	if note.CreatedAt == "" {
		note.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	note.Title = Title(note.Content)

	item, err := attributevalue.MarshalMap(note)
	if err != nil {
		return fmt.Errorf("notes: failed to marshal note: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(noteId)"),
	})
	if err != nil {
		return fmt.Errorf("notes: failed to persist note: %w", err)
	}

	s.logger.Debug("note persisted", "note_id", note.NoteID, "kind", note.Kind)
	return nil
}
