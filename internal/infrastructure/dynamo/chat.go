package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/water-delivery-api/internal/domain"
)

// ChatRepo stores chat messages and the per-customer thread summaries the
// admin inbox is built from.
// messages PK: customer_id, SK: message_id; threads PK: customer_id
type ChatRepo struct {
	client        *dynamodb.Client
	messagesTable string
	threadsTable  string
}

func NewChatRepo(client *dynamodb.Client, messagesTable, threadsTable string) *ChatRepo {
	return &ChatRepo{client: client, messagesTable: messagesTable, threadsTable: threadsTable}
}

// Append writes the message and refreshes its thread summary atomically.
// Messages from the customer bump the thread's unread counter.
func (r *ChatRepo) Append(ctx context.Context, m *domain.ChatMessage) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	last, err := attributevalue.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	at, err := attributevalue.Marshal(m.CreatedAt)
	if err != nil {
		return err
	}
	inc := 0
	if m.SenderType == domain.SenderCustomer {
		inc = 1
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.messagesTable), Item: item}},
			{Update: &types.Update{
				TableName:        aws.String(r.threadsTable),
				Key:              strKey(fieldCustomerID, m.CustomerID),
				UpdateExpression: aws.String("SET #lm = :lm, #lt = :lt ADD #u :inc"),
				ExpressionAttributeNames: map[string]string{
					"#lm": "last_message",
					"#lt": "last_message_at",
					"#u":  fieldUnreadFromCustomer,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":lm":  last,
					":lt":  at,
					":inc": &types.AttributeValueMemberN{Value: strconv.Itoa(inc)},
				},
			}},
		},
	})
	return err
}

// ListMessages returns a customer's conversation, oldest first.
func (r *ChatRepo) ListMessages(ctx context.Context, customerID string) ([]domain.ChatMessage, error) {
	return queryAll[domain.ChatMessage](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.messagesTable),
		KeyConditionExpression: aws.String("customer_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": strVal(customerID),
		},
	})
}

// ListThreads returns every thread summary. Ordering is left to the caller.
func (r *ChatRepo) ListThreads(ctx context.Context) ([]domain.ChatThread, error) {
	return scanAll[domain.ChatThread](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.threadsTable),
	})
}

// MarkCustomerMessagesRead stamps read_at on the customer's unread messages
// and resets the thread's unread counter.
func (r *ChatRepo) MarkCustomerMessagesRead(ctx context.Context, customerID string, at time.Time) error {
	unread, err := queryAll[domain.ChatMessage](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.messagesTable),
		KeyConditionExpression: aws.String("customer_id = :cid"),
		FilterExpression:       aws.String("#s = :sender AND (attribute_not_exists(#r) OR attribute_type(#r, :null))"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldSenderType,
			"#r": fieldReadAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid":    strVal(customerID),
			":sender": strVal(domain.SenderCustomer),
			":null":   strVal("NULL"),
		},
	})
	if err != nil {
		return err
	}
	readAt, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	for _, m := range unread {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.messagesTable),
			Key:                       compositeKey(fieldCustomerID, customerID, fieldMessageID, m.MessageID),
			UpdateExpression:          aws.String("SET #r = :r"),
			ExpressionAttributeNames:  map[string]string{"#r": fieldReadAt},
			ExpressionAttributeValues: map[string]types.AttributeValue{":r": readAt},
		})
		if err != nil {
			return fmt.Errorf("mark message %s read: %w", m.MessageID, err)
		}
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.threadsTable),
		Key:                       strKey(fieldCustomerID, customerID),
		UpdateExpression:          aws.String("SET #u = :zero"),
		ConditionExpression:       aws.String("attribute_exists(customer_id)"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUnreadFromCustomer},
		ExpressionAttributeValues: map[string]types.AttributeValue{":zero": &types.AttributeValueMemberN{Value: "0"}},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// no conversation yet
		return nil
	}
	return err
}
