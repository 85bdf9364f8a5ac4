package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-signup-api/internal/domain"
)

// OtpRepo manages pending verification codes. PK: email, so a plain PutItem
// is an atomic last-write-wins upsert — at most one live code per address.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

// Upsert stores the record, replacing any existing code for the same email.
func (r *OtpRepo) Upsert(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByEmailAndCode returns the live record matching both email and code.
// DynamoDB purges expired items lazily, so an expired row may still be
// physically present; it is filtered here and reported as ErrNotFound,
// exactly like a missing or mismatched code.
func (r *OtpRepo) GetByEmailAndCode(ctx context.Context, email, code string) (*domain.OtpRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var rec domain.OtpRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	if rec.Code != code {
		return nil, fmt.Errorf("otp mismatch: %w", domain.ErrNotFound)
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("otp expired: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

// Delete removes the code for the given email (single-use consumption).
func (r *OtpRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	return err
}
