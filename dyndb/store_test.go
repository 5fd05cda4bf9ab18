package dyndb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-task-service/dyndb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)
	ctx := context.Background()

	mockClient.On("GetItem", ctx, &dynamodb.GetItemInput{
		TableName: aws.String("test-table"),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "user-1"},
			"sk": &types.AttributeValueMemberS{Value: "task-1"},
		},
		ConsistentRead: aws.Bool(true),
	}).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"pk":     &types.AttributeValueMemberS{Value: "user-1"},
			"sk":     &types.AttributeValueMemberS{Value: "task-1"},
			"name":   &types.AttributeValueMemberS{Value: "Buy milk"},
			"status": &types.AttributeValueMemberS{Value: "pending"},
		},
	}, nil)

	item, err := store.Get(ctx, "user-1", "task-1")

	require.NoError(t, err)
	assert.Equal(t, "Buy milk", item.Name)
	assert.Equal(t, "pending", item.Status)
	mockClient.AssertExpectations(t)
}

func TestGet_NotFound(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{}, nil)

	item, err := store.Get(context.Background(), "user-1", "missing")

	assert.Nil(t, item)
	assert.ErrorIs(t, err, dyndb.ErrNotFound)
}

func TestGet_ClientError(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))

	_, err := store.Get(context.Background(), "user-1", "task-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.NotErrorIs(t, err, dyndb.ErrNotFound)
}

func TestPut_MarshalsItem(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		name, ok := in.Item["name"].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "test-table" && ok && name.Value == "Write tests"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	err := store.Put(context.Background(), TestItem{PK: "user-1", SK: "task-1", Name: "Write tests"})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestDelete_Success(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return len(in.Key) == 2
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, store.Delete(context.Background(), "user-1", "task-1"))
	mockClient.AssertExpectations(t)
}

func TestUpdate_RequireExisting(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return in.ConditionExpression != nil &&
			in.UpdateExpression != nil &&
			in.ReturnValues == types.ReturnValueAllNew
	})).Return(&dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			"pk":     &types.AttributeValueMemberS{Value: "user-1"},
			"sk":     &types.AttributeValueMemberS{Value: "task-1"},
			"name":   &types.AttributeValueMemberS{Value: "Renamed"},
			"status": &types.AttributeValueMemberS{Value: "completed"},
		},
	}, nil)

	item, err := store.Update(context.Background(), "user-1", "task-1",
		map[string]any{"name": "Renamed", "status": "completed"}, dyndb.RequireExisting())

	require.NoError(t, err)
	assert.Equal(t, "Renamed", item.Name)
	assert.Equal(t, "completed", item.Status)
	mockClient.AssertExpectations(t)
}

func TestUpdate_WithoutConditionOmitsExpression(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return in.ConditionExpression == nil
	})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{}}, nil)

	_, err := store.Update(context.Background(), "user-1", "task-1", map[string]any{"name": "x"})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestUpdate_ConditionFailed(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")})

	item, err := store.Update(context.Background(), "user-1", "missing",
		map[string]any{"status": "completed"}, dyndb.RequireExisting())

	assert.Nil(t, item)
	assert.ErrorIs(t, err, dyndb.ErrConditionFailed)
}

func TestUpdate_NoChanges(t *testing.T) {
	mockClient := new(MockDynamoClient)
	store := createTestStore(mockClient)

	_, err := store.Update(context.Background(), "user-1", "task-1", nil)

	require.Error(t, err)
	mockClient.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}

func TestNew_LoadsTableFromEnv(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE_NAME", "env-table")

	client := &dyndb.MockDynamoClient{
		GetItemFn: func(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "env-table", aws.ToString(in.TableName))
			_, hasUser := in.Key["userId"]
			assert.True(t, hasUser)
			return &dynamodb.GetItemOutput{}, nil
		},
	}

	store := dyndb.New(client, dyndb.TableConfig[TestItem]{})
	_, err := store.Get(context.Background(), "user-1", "task-1")

	assert.ErrorIs(t, err, dyndb.ErrNotFound)
}
