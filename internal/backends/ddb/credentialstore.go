package ddb

import (
	"context"
	"dbuilder/internal/types"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by CredentialStore.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// CredentialStore keeps one item per identity: PK=IDENTITY#{id}, SK=CREDENTIALS.
type CredentialStore struct {
	table string
	cli   API
}

type credentialItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.CredentialPair
	UpdatedAt int64 `dynamodbav:"updated_at"`
}

func NewCredentialStore(table string, cli *dynamodb.Client) *CredentialStore {
	// Creates the table only if it doesn't exist.
	createTableIfNotExists(cli, table)
	return &CredentialStore{table: table, cli: cli}
}

// NewCredentialStoreWithAPI skips table creation; the caller owns the table.
func NewCredentialStoreWithAPI(table string, cli API) *CredentialStore {
	return &CredentialStore{table: table, cli: cli}
}

func (s *CredentialStore) GetCredentials(ctx context.Context, identity string) (*types.CredentialPair, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkIdentity(identity)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skCredentials()},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "get credentials %s", identity)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item credentialItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "decode credentials %s", identity)
	}
	if !item.CredentialPair.Valid() {
		return nil, nil
	}
	return &item.CredentialPair, nil
}

func (s *CredentialStore) PutCredentials(ctx context.Context, identity string, pair types.CredentialPair) error {
	if !pair.Valid() {
		return types.Err(types.ErrInvalidInput, nil, "incomplete credential pair for %s", identity)
	}
	av, err := attributevalue.MarshalMap(credentialItem{
		PK:             pkIdentity(identity),
		SK:             skCredentials(),
		CredentialPair: pair,
		UpdatedAt:      time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "put credentials %s", identity)
	}
	return nil
}
