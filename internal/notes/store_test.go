package notes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

type fakeDynamo struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeDynamo) PutItem(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestCreateNoteFillsDefaults(t *testing.T) {
	client := &fakeDynamo{}
	store := NewStore(client, "notes", logging.Default())

	note := &NoteRecord{
		Kind:     NoteKindText,
		SenderID: "user-1",
		Content:  strings.Repeat("x", 60),
	}
	if err := store.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}

	if note.NoteID == "" {
		t.Fatal("expected a generated note id")
	}
	if note.CreatedAt == "" {
		t.Fatal("expected a created timestamp")
	}
	if note.Title != strings.Repeat("x", 50)+"..." {
		t.Fatalf("expected derived title, got %q", note.Title)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected one PutItem call, got %d", len(client.inputs))
	}
	input := client.inputs[0]
	if *input.TableName != "notes" {
		t.Fatalf("expected table notes, got %q", *input.TableName)
	}
	if *input.ConditionExpression != "attribute_not_exists(noteId)" {
		t.Fatalf("unexpected condition expression: %q", *input.ConditionExpression)
	}

	id, ok := input.Item["noteId"].(*types.AttributeValueMemberS)
	if !ok || id.Value != note.NoteID {
		t.Fatalf("expected noteId attribute %q, got %#v", note.NoteID, input.Item["noteId"])
	}
	kind, ok := input.Item["kind"].(*types.AttributeValueMemberS)
	if !ok || kind.Value != string(NoteKindText) {
		t.Fatalf("expected kind attribute, got %#v", input.Item["kind"])
	}
}

func TestCreateNoteWrapsClientError(t *testing.T) {
	client := &fakeDynamo{err: errors.New("provisioned throughput exceeded")}
	store := NewStore(client, "notes", logging.Default())

	err := store.CreateNote(context.Background(), &NoteRecord{Kind: NoteKindText, SenderID: "u", Content: "c"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "failed to persist note") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCreateNoteRejectsNil(t *testing.T) {
	store := NewStore(&fakeDynamo{}, "notes", logging.Default())
	if err := store.CreateNote(context.Background(), nil); err == nil {
		t.Fatal("expected an error for nil note")
	}
}
