package ddb

import (
	"context"

	"hookstate/internal/codec"
	"hookstate/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// Store implements ports.SnapshotStore with one DynamoDB item per snapshot.
type Store struct {
	table string
	cli   *dynamodb.Client
}

type snapshotItem struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Path string `dynamodbav:"path"`
	Data string `dynamodbav:"data"`
}

func NewStore(table string, cli *dynamodb.Client) *Store {
	// Creates the table only if it doesn't exist.
	createTableIfNotExists(cli, table)
	return &Store{table: table, cli: cli}
}

func (s *Store) itemKey(key string) map[string]ddbTypes.AttributeValue {
	return map[string]ddbTypes.AttributeValue{
		"PK": &ddbTypes.AttributeValueMemberS{Value: pkSnapshot(key)},
		"SK": &ddbTypes.AttributeValueMemberS{Value: skData()},
	}
}

func (s *Store) Load(ctx context.Context, key string) (map[string]any, bool, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            s.itemKey(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "ddb load %s", key)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "ddb unmarshal %s", key)
	}
	if item.Path != key {
		log.WithFields(log.Fields{"key": key, "stored": item.Path}).Warn("Snapshot key collision")
		return nil, false, nil
	}
	snapshot, err := codec.Decode(item.Data)
	if err != nil {
		return nil, false, types.Err(types.ErrSnapshotRead, err, "ddb decode %s", key)
	}
	return snapshot, true, nil
}

func (s *Store) Save(ctx context.Context, key string, snapshot map[string]any) error {
	data, err := codec.Encode(snapshot)
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "encode %s", key)
	}
	item, err := attributevalue.MarshalMap(snapshotItem{
		PK:   pkSnapshot(key),
		SK:   skData(),
		Path: key,
		Data: data,
	})
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "ddb marshal %s", key)
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "ddb save %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       s.itemKey(key),
	})
	if err != nil {
		return types.Err(types.ErrSnapshotWrite, err, "ddb delete %s", key)
	}
	return nil
}
