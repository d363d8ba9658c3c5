package dynamodb

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewClientFromConfig accepts an AWS SDK config and returns a DynamoDB client.
func NewClientFromConfig(cfg sdkaws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// CheckTable fails when table is missing or unreachable, so misconfiguration surfaces at startup.
func CheckTable(ctx context.Context, client *dynamodb.Client, table string) error {
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: sdkaws.String(table)}); err != nil {
		return fmt.Errorf("dynamodb table %s unavailable: %w", table, err)
	}
	return nil
}
