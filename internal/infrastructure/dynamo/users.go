package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-recovery-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// FindForRecovery loads the user by id and checks the presented key and channel code
// against the stored verification record. Any mismatch is reported as not found.
func (r *UserRepo) FindForRecovery(ctx context.Context, m domain.RecoveryMatch) (*domain.User, error) {
	u, err := r.Get(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	if !matchesRecovery(u.Verification, m) {
		return nil, fmt.Errorf("recovery record mismatch: %w", domain.ErrNotFound)
	}
	return u, nil
}

// RotateRecoveryKey writes the new key in a single conditional UpdateItem so two
// exchanges racing on the same token cannot both land.
func (r *UserRepo) RotateRecoveryKey(ctx context.Context, rot domain.KeyRotation) error {
	expr, err := rotationExpr(rot)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, rot.UserID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("recovery key changed concurrently: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func matchesRecovery(v domain.VerificationRecord, m domain.RecoveryMatch) bool {
	keyOK := secretEqual(v.Key, m.Key)
	codeOK := secretEqual(v.Code(m.Channel), m.Code)
	return keyOK && codeOK
}

// rotationExpr builds the SET/REMOVE update guarded by the key, code and expiration condition.
func rotationExpr(rot domain.KeyRotation) (expression.Expression, error) {
	codePath := fieldVerification + "." + rot.Channel.CodeField()
	expPath := fieldVerification + "." + rot.Channel.ExpirationField()

	update := expression.
		Set(expression.Name(fieldVerificationKey), expression.Value(rot.NewKey)).
		Set(expression.Name(fieldUpdatedAt), expression.Value(rot.RotatedAt.UTC().Format(time.RFC3339)))
	if rot.ConsumeCode {
		update = update.Remove(expression.Name(codePath))
	}

	cond := expression.Name(fieldVerificationKey).Equal(expression.Value(rot.OldKey)).
		And(
			expression.Name(codePath).Equal(expression.Value(rot.Code)),
			expression.Name(expPath).GreaterThanEqual(expression.Value(rot.NotBefore)),
		)

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build rotation expression: %w", err)
	}
	return expr, nil
}

// Ping checks that the users table is reachable.
func (r *UserRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)})
	return err
}
