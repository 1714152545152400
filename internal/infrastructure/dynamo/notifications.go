package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/water-delivery-api/internal/domain"
)

const unreadFilter = "attribute_not_exists(#r) OR attribute_type(#r, :null)"

// AdminNotificationRepo stores the admin dashboard feed.
// PK: scope (always "admin"), SK: notification_id
type AdminNotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAdminNotificationRepo(client *dynamodb.Client, tableName string) *AdminNotificationRepo {
	return &AdminNotificationRepo{client: client, tableName: tableName}
}

func (r *AdminNotificationRepo) key(notificationID string) map[string]types.AttributeValue {
	return compositeKey(fieldScope, domain.AdminNotificationScope, fieldNotificationID, notificationID)
}

func (r *AdminNotificationRepo) Put(ctx context.Context, n *domain.AdminNotification) error {
	n.Scope = domain.AdminNotificationScope
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal admin notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// List returns notifications newest first, optionally only unread ones.
func (r *AdminNotificationRepo) List(ctx context.Context, unreadOnly bool) ([]domain.AdminNotification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#s = :scope"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldScope,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": strVal(domain.AdminNotificationScope),
		},
		ScanIndexForward: aws.Bool(false),
	}
	if unreadOnly {
		input.FilterExpression = aws.String(unreadFilter)
		input.ExpressionAttributeNames["#r"] = fieldReadAt
		input.ExpressionAttributeValues[":null"] = strVal("NULL")
	}
	return queryAll[domain.AdminNotification](ctx, r.client, input)
}

// CountUnread counts unread notifications without transferring the items.
func (r *AdminNotificationRepo) CountUnread(ctx context.Context) (int, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#s = :scope"),
		FilterExpression:       aws.String(unreadFilter),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldScope,
			"#r": fieldReadAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": strVal(domain.AdminNotificationScope),
			":null":  strVal("NULL"),
		},
		Select: types.SelectCount,
	})
	total := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(page.Count)
	}
	return total, nil
}

func (r *AdminNotificationRepo) MarkRead(ctx context.Context, notificationID string, at time.Time) error {
	readAt, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(notificationID),
		UpdateExpression:          aws.String("SET #r = :r"),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldReadAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": readAt},
	})
	return notFoundOnConditionFailure(err, "notification")
}

// MarkAllRead stamps read_at on every unread notification and returns how many changed.
func (r *AdminNotificationRepo) MarkAllRead(ctx context.Context, at time.Time) (int, error) {
	unread, err := r.List(ctx, true)
	if err != nil {
		return 0, err
	}
	for _, n := range unread {
		if err := r.MarkRead(ctx, n.NotificationID, at); err != nil {
			return 0, fmt.Errorf("mark notification %s read: %w", n.NotificationID, err)
		}
	}
	return len(unread), nil
}

// CustomerNotificationRepo stores each customer's own feed.
// PK: customer_id, SK: notification_id
type CustomerNotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCustomerNotificationRepo(client *dynamodb.Client, tableName string) *CustomerNotificationRepo {
	return &CustomerNotificationRepo{client: client, tableName: tableName}
}

func (r *CustomerNotificationRepo) Put(ctx context.Context, n *domain.CustomerNotification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal customer notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByCustomer returns a customer's notifications newest first.
func (r *CustomerNotificationRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerNotification, error) {
	return queryAll[domain.CustomerNotification](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("customer_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": strVal(customerID),
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (r *CustomerNotificationRepo) MarkRead(ctx context.Context, customerID, notificationID string, at time.Time) error {
	readAt, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldCustomerID, customerID, fieldNotificationID, notificationID),
		UpdateExpression:          aws.String("SET #r = :r"),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldReadAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": readAt},
	})
	return notFoundOnConditionFailure(err, "notification")
}
