package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/lakego/blobstore"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentCommit is returned when another writer committed first.
var ErrConcurrentCommit = errors.New("concurrent metadata commit detected")

// CommitStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic pointer commits.
//
// S3 lacks compare-and-swap, so overwriting a CURRENT pointer blob from
// two writers can lose a committed tablet metadata version. The commit
// store keeps the pointer in DynamoDB instead: each pointer write is a
// conditional put on a monotonically increasing version, and each
// pointer read returns the highest committed version. All other blobs
// pass through to S3 untouched.
//
// Table schema:
//   - Partition key: ptr (string) - base URI plus pointer blob name
//   - Sort key: version (number) - monotonically increasing
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name lakego-commits \
//	  --attribute-definitions AttributeName=ptr,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=ptr,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	inner     *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewCommitStore creates a new S3+DynamoDB commit store. baseURI should
// be "s3://bucket/prefix" and is used to namespace the partition key.
func NewCommitStore(inner *Store, ddbClient DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		inner:     inner,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// isPointer reports whether name is a CURRENT pointer blob.
func isPointer(name string) bool {
	return path.Base(name) == "CURRENT"
}

func (s *CommitStore) partitionKey(name string) string {
	return s.baseURI + "/" + name
}

// Open opens a blob. Pointer blobs are served from DynamoDB.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if isPointer(name) {
		version, target, err := s.latestVersion(ctx, name)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &pointerBlob{content: []byte(target)}, nil
	}
	return s.inner.Open(ctx, name)
}

// Create passes through to S3. Pointer blobs must be written with Put.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Put writes a blob. Pointer writes become DynamoDB conditional puts.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if isPointer(name) {
		return s.commit(ctx, name, string(data))
	}
	return s.inner.Put(ctx, name, data)
}

// Delete passes through to S3.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List passes through to S3.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// latestVersion queries DynamoDB for the highest committed version of a
// pointer and its target blob name.
func (s *CommitStore) latestVersion(ctx context.Context, name string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("ptr = :ptr"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ptr": &types.AttributeValueMemberS{Value: s.partitionKey(name)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in commit table")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid target attribute in commit table")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("parse committed version: %w", err)
	}
	return version, targetAttr.Value, nil
}

// commit atomically advances a pointer using a conditional put.
func (s *CommitStore) commit(ctx context.Context, name, target string) error {
	current, _, err := s.latestVersion(ctx, name)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"ptr":     &types.AttributeValueMemberS{Value: s.partitionKey(name)},
			"version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", current+1)},
			"target":  &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentCommit
		}
		return fmt.Errorf("commit pointer: %w", err)
	}
	return nil
}

// pointerBlob serves a pointer's target as a read-only blob.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	end := off + length
	if end > int64(len(b.content)) {
		end = int64(len(b.content))
	}
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
