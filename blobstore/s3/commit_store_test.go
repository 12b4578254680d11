package s3

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/lakego/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ptr := params.Item["ptr"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := ptr + ":" + version

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ptr := params.ExpressionAttributeValues[":ptr"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["ptr"].(*types.AttributeValueMemberS).Value == ptr {
			items = append(items, item)
		}
	}
	// Descending by version (numeric strings of equal meaning here).
	for i := 0; i < len(items)-1; i++ {
		for j := i + 1; j < len(items); j++ {
			vi := items[i]["version"].(*types.AttributeValueMemberN).Value
			vj := items[j]["version"].(*types.AttributeValueMemberN).Value
			if len(vi) < len(vj) || (len(vi) == len(vj) && vi < vj) {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func newTestCommitStore(ddb DDBClient) *CommitStore {
	return NewCommitStore(&Store{client: &MockS3Client{}, bucket: "b"}, ddb, "commits", "s3://b/tablets")
}

func TestCommitStore_PointerRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMockDDBClient())

	// No committed pointer yet.
	_, err := store.Open(ctx, "42/CURRENT")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "42/CURRENT", []byte("42/META-000001.bin")))

	blob, err := store.Open(ctx, "42/CURRENT")
	require.NoError(t, err)
	defer blob.Close()
	target, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "42/META-000001.bin", string(target))

	// Advancing the pointer returns the newest target.
	require.NoError(t, store.Put(ctx, "42/CURRENT", []byte("42/META-000002.bin")))
	blob2, err := store.Open(ctx, "42/CURRENT")
	require.NoError(t, err)
	defer blob2.Close()
	target, err = blobstore.ReadAll(ctx, blob2)
	require.NoError(t, err)
	assert.Equal(t, "42/META-000002.bin", string(target))
}

func TestCommitStore_PointersAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMockDDBClient())

	require.NoError(t, store.Put(ctx, "1/CURRENT", []byte("1/META-000001.bin")))

	// A different tablet's pointer is unaffected.
	_, err := store.Open(ctx, "2/CURRENT")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommitStore_ConcurrentCommitDetected(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	a := newTestCommitStore(ddb)
	b := newTestCommitStore(ddb)

	require.NoError(t, a.Put(ctx, "7/CURRENT", []byte("7/META-000001.bin")))

	// Writer b races: both read version 1, b commits 2 first.
	require.NoError(t, b.Put(ctx, "7/CURRENT", []byte("7/META-000002b.bin")))

	// Simulate a stale writer by inserting the same version again.
	_, err := ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String("commits"),
		Item: map[string]types.AttributeValue{
			"ptr":     &types.AttributeValueMemberS{Value: "s3://b/tablets/7/CURRENT"},
			"version": &types.AttributeValueMemberN{Value: "2"},
			"target":  &types.AttributeValueMemberS{Value: "7/META-000002a.bin"},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	var condErr *types.ConditionalCheckFailedException
	assert.ErrorAs(t, err, &condErr)
}
