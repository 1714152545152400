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

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100

// AddressRepo stores address-book entries.
// PK: customer_id, SK: address_id
type AddressRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAddressRepo(client *dynamodb.Client, tableName string) *AddressRepo {
	return &AddressRepo{client: client, tableName: tableName}
}

func (r *AddressRepo) key(customerID, addressID string) map[string]types.AttributeValue {
	return compositeKey(fieldCustomerID, customerID, fieldAddressID, addressID)
}

func (r *AddressRepo) Put(ctx context.Context, a *domain.Address) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AddressRepo) Get(ctx context.Context, customerID, addressID string) (*domain.Address, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(customerID, addressID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("address not found: %w", domain.ErrNotFound)
	}
	var a domain.Address
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByCustomer returns every address of a customer in creation order.
func (r *AddressRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error) {
	return queryAll[domain.Address](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("customer_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": strVal(customerID),
		},
	})
}

func (r *AddressRepo) Update(ctx context.Context, customerID, addressID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(withUpdatedAt(updates))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(customerID, addressID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(address_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFailure(err, "address")
}

func (r *AddressRepo) Delete(ctx context.Context, customerID, addressID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(customerID, addressID),
	})
	return err
}

// SetDefault marks addressID as the default and clears is_default on every id
// in others, in a single transaction.
func (r *AddressRepo) SetDefault(ctx context.Context, customerID, addressID string, others []string) error {
	if len(others)+1 > maxTransactItems {
		return fmt.Errorf("too many addresses to swap default: %w", domain.ErrBadRequest)
	}
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	items := make([]types.TransactWriteItem, 0, len(others)+1)
	items = append(items, r.defaultUpdate(customerID, addressID, true, now))
	for _, id := range others {
		if id == addressID {
			continue
		}
		items = append(items, r.defaultUpdate(customerID, id, false, now))
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

// CreateAsDefault writes a as the new default address and clears is_default on
// every id in others. Either all writes land or none do.
func (r *AddressRepo) CreateAsDefault(ctx context.Context, a *domain.Address, others []string) error {
	if len(others)+1 > maxTransactItems {
		return fmt.Errorf("too many addresses to swap default: %w", domain.ErrBadRequest)
	}
	a.IsDefault = true
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	now, err := attributevalue.Marshal(a.UpdatedAt)
	if err != nil {
		return err
	}
	items := make([]types.TransactWriteItem, 0, len(others)+1)
	for _, id := range others {
		if id == a.AddressID {
			continue
		}
		items = append(items, r.defaultUpdate(a.CustomerID, id, false, now))
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(address_id)"),
		},
	})
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

func (r *AddressRepo) defaultUpdate(customerID, addressID string, isDefault bool, now types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           aws.String(r.tableName),
			Key:                 r.key(customerID, addressID),
			UpdateExpression:    aws.String("SET #d = :d, #u = :u"),
			ConditionExpression: aws.String("attribute_exists(address_id)"),
			ExpressionAttributeNames: map[string]string{
				"#d": fieldIsDefault,
				"#u": fieldUpdatedAt,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":d": &types.AttributeValueMemberBOOL{Value: isDefault},
				":u": now,
			},
		},
	}
}
