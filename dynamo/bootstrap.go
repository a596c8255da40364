// Package dynamo prepares the DynamoDB table the service stores its users in.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanctionco/thunder-contract-tests/framework"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	DefaultTableName = "pilot-users-test"
	DefaultRegion    = "us-east-1"
	DefaultPort      = 4567

	hashKeyAttribute   = "email"
	provisionedReadCap = 2
	provisionedWrite   = 2
	defaultWaitTimeout = 30 * time.Second
)

// DefaultEndpoint is where DynamoDB Local listens. With Docker-in-Docker the host is
// reachable under the name "docker" instead of localhost.
func DefaultEndpoint(docker bool) string {
	host := "localhost"
	if docker {
		host = "docker"
	}
	return fmt.Sprintf("http://%s:%d", host, DefaultPort)
}

// TableAPI is the subset of the DynamoDB client that the bootstrapper uses.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Config describes the table to create and where.
type Config struct {
	Endpoint  string
	Region    string
	TableName string
	// WaitTimeout bounds how long to wait for a new table to become active. Zero uses a
	// default; a negative value disables waiting.
	WaitTimeout time.Duration
}

// TableBootstrapper creates the users table. A table that already exists counts as
// success, so a run can be repeated against the same database.
type TableBootstrapper struct {
	api    TableAPI
	config Config
	logger framework.Logger
}

// NewClient builds a DynamoDB client for a local endpoint. DynamoDB Local accepts any
// credentials, so static dummy ones are used rather than whatever the environment has.
func NewClient(ctx context.Context, config Config) (*dynamodb.Client, error) {
	region := config.Region
	if region == "" {
		region = DefaultRegion
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(region),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load config: %w", err)
	}
	var opts []func(*dynamodb.Options)
	if config.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	return dynamodb.NewFromConfig(cfg, opts...), nil
}

func NewTableBootstrapper(api TableAPI, config Config, logger framework.Logger) *TableBootstrapper {
	if config.TableName == "" {
		config.TableName = DefaultTableName
	}
	if config.WaitTimeout == 0 {
		config.WaitTimeout = defaultWaitTimeout
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &TableBootstrapper{api: api, config: config, logger: logger}
}

func (b *TableBootstrapper) Bootstrap(ctx context.Context) error {
	b.logger.Printf("Creating %s table...", b.config.TableName)
	_, err := b.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(b.config.TableName),
		AttributeDefinitions: []types.AttributeDefinition{{
			AttributeName: aws.String(hashKeyAttribute),
			AttributeType: types.ScalarAttributeTypeS,
		}},
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(hashKeyAttribute),
			KeyType:       types.KeyTypeHash,
		}},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(provisionedReadCap),
			WriteCapacityUnits: aws.Int64(provisionedWrite),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			b.logger.Printf("Table %s already exists", b.config.TableName)
			return nil
		}
		return fmt.Errorf("dynamo: create table %s: %w", b.config.TableName, err)
	}

	if b.config.WaitTimeout > 0 {
		waiter := dynamodb.NewTableExistsWaiter(b.api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.config.TableName)}, b.config.WaitTimeout); err != nil {
			return fmt.Errorf("dynamo: waiting for table %s: %w", b.config.TableName, err)
		}
	}
	b.logger.Printf("Done creating table")
	return nil
}
