package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, logger *logrus.Logger) {
	create := func(input *dynamodb.CreateTableInput) { createTable(ctx, client, input, logger) }

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Customers),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldCustomerID),
			strAttr(fieldEmail),
		},
		KeySchema: keySchema(fieldCustomerID, ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexEmail, fieldEmail, ""),
		},
	})

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Addresses),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldCustomerID),
			strAttr(fieldAddressID),
		},
		KeySchema: keySchema(fieldCustomerID, fieldAddressID),
	})

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Orders),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldOrderID),
			strAttr(fieldCustomerID),
			strAttr(fieldCreatedAt),
		},
		KeySchema: keySchema(fieldOrderID, ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexCustomerCreatedAt, fieldCustomerID, fieldCreatedAt),
		},
	})

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.ChatMessages),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldCustomerID),
			strAttr(fieldMessageID),
		},
		KeySchema: keySchema(fieldCustomerID, fieldMessageID),
	})

	create(&dynamodb.CreateTableInput{
		TableName:            aws.String(tables.ChatThreads),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr(fieldCustomerID)},
		KeySchema:            keySchema(fieldCustomerID, ""),
	})

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.AdminNotifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldScope),
			strAttr(fieldNotificationID),
		},
		KeySchema: keySchema(fieldScope, fieldNotificationID),
	})

	create(&dynamodb.CreateTableInput{
		TableName:   aws.String(tables.CustomerNotifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldCustomerID),
			strAttr(fieldNotificationID),
		},
		KeySchema: keySchema(fieldCustomerID, fieldNotificationID),
	})
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// keySchema builds a hash key schema, plus a range key when sortKey is set.
func keySchema(hashKey, sortKey string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return ks
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  keySchema(hashKey, sortKey),
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput, logger *logrus.Logger) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			logger.WithError(err).WithField("table", *input.TableName).Warn("could not create table")
		}
		return
	}
	logger.WithField("table", *input.TableName).Info("created table")
}
