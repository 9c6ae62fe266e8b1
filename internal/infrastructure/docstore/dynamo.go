package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore implements Store on DynamoDB. Each collection maps to a table
// named "<database>_<collection>" with partition key "_id".
type DynamoStore struct {
	client   *dynamodb.Client
	database string
}

func NewDynamoStore(client *dynamodb.Client, database string) *DynamoStore {
	return &DynamoStore{client: client, database: database}
}

func (s *DynamoStore) Collection(name string) Collection {
	return &dynamoCollection{
		client: s.client,
		table:  s.database + "_" + name,
	}
}

func (s *DynamoStore) Close() error { return nil }

type dynamoCollection struct {
	client *dynamodb.Client
	table  string
}

func (c *dynamoCollection) FindAll(ctx context.Context) ([]Document, error) {
	return c.scan(ctx, Filter{})
}

// Find scans and evaluates the filter adapter-side: DynamoDB's contains()
// is case-sensitive, so substring clauses cannot be pushed down.
func (c *dynamoCollection) Find(ctx context.Context, f Filter) ([]Document, error) {
	return c.scan(ctx, f)
}

func (c *dynamoCollection) scan(ctx context.Context, f Filter) ([]Document, error) {
	var docs []Document
	var startKey map[string]types.AttributeValue

	for {
		out, err := c.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(c.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}

		for _, item := range out.Items {
			var doc Document
			if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			if f.Matches(doc) {
				docs = append(docs, doc)
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return docs, nil
}

func (c *dynamoCollection) FindByID(ctx context.Context, id ID) (Document, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key:       dynamoKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var doc Document
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return doc, nil
}

func (c *dynamoCollection) InsertOne(ctx context.Context, doc Document) (ID, error) {
	id := NewID()
	stored := copyDoc(doc)
	stored[IDField] = id.String()

	item, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": IDField,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put item: %w", err)
	}
	return id, nil
}

func (c *dynamoCollection) IncrementField(ctx context.Context, id ID, field string, delta int) error {
	names := map[string]string{
		"#id": IDField,
		"#f":  field,
	}
	values := map[string]types.AttributeValue{
		":zero":  &types.AttributeValueMemberN{Value: "0"},
		":delta": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
	}

	// A missing field reads as zero, which can never satisfy #f >= :need
	// for a positive :need, so absent-attribute condition failures report
	// insufficiency correctly.
	condition := "attribute_exists(#id)"
	if delta < 0 {
		condition += " AND #f >= :need"
		values[":need"] = &types.AttributeValueMemberN{Value: strconv.Itoa(-delta)}
	}

	_, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.table),
		Key:                       dynamoKey(id),
		UpdateExpression:          aws.String("SET #f = if_not_exists(#f, :zero) + :delta"),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err == nil {
		return nil
	}

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		// The condition does not say whether the document was absent or the
		// field insufficient; a follow-up read disambiguates.
		if _, getErr := c.FindByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConditionFailed
	}
	return fmt.Errorf("update item: %w", err)
}

func dynamoKey(id ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		IDField: &types.AttributeValueMemberS{Value: id.String()},
	}
}
