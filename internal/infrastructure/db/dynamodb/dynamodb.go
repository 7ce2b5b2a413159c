package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const tableWaitTimeout = 2 * time.Minute

// Config captures the settings required to reach the table.
type Config struct {
	Region          string
	Table           string
	Endpoint        string // optional, e.g. DynamoDB Local
	AccessKeyID     string
	SecretAccessKey string
	CreateTable     bool
	Timeout         time.Duration
}

// Connect builds a DynamoDB client, optionally creates the table, and
// verifies it is reachable. Static credentials are used when both keys are
// set, otherwise the default AWS credential chain applies.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	store := NewStore(client, cfg.Table)
	if cfg.Timeout > 0 {
		store.timeout = cfg.Timeout
	}
	if cfg.CreateTable {
		if err := EnsureTable(ctx, client, cfg.Table); err != nil {
			return nil, err
		}
	}
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureTable creates the table with its GSI1 index when it does not exist
// and waits until it is active.
func EnsureTable(ctx context.Context, client API, table string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return fmt.Errorf("dynamodb describe %s: %w", table, err)
	}

	_, err = client.CreateTable(ctx, tableDefinition(table))
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("dynamodb create %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("dynamodb wait for %s: %w", table, err)
	}
	return nil
}

func tableDefinition(table string) *dynamodb.CreateTableInput {
	str := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			str(ports.AttrPK), str(ports.AttrSK), str(ports.AttrGSI1PK), str(ports.AttrGSI1SK),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(ports.AttrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(ports.AttrSK), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(ports.IndexGSI1),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(ports.AttrGSI1PK), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(ports.AttrGSI1SK), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}
