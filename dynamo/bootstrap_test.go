package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTableAPI struct {
	createErr   error
	created     []*dynamodb.CreateTableInput
	describes   int
	tableStatus types.TableStatus
}

func (f *fakeTableAPI) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeTableAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.describes++
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: params.TableName, TableStatus: f.tableStatus},
	}, nil
}

func TestBootstrapCreatesTable(t *testing.T) {
	api := &fakeTableAPI{tableStatus: types.TableStatusActive}
	b := NewTableBootstrapper(api, Config{}, nil)

	require.NoError(t, b.Bootstrap(context.Background()))
	require.Len(t, api.created, 1)
	input := api.created[0]
	assert.Equal(t, DefaultTableName, aws.ToString(input.TableName))
	require.Len(t, input.KeySchema, 1)
	assert.Equal(t, "email", aws.ToString(input.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, input.KeySchema[0].KeyType)
	assert.Equal(t, int64(2), aws.ToInt64(input.ProvisionedThroughput.ReadCapacityUnits))
	assert.Equal(t, 1, api.describes)
}

func TestBootstrapTreatsExistingTableAsSuccess(t *testing.T) {
	api := &fakeTableAPI{createErr: &types.ResourceInUseException{Message: aws.String("Cannot create preexisting table")}}
	b := NewTableBootstrapper(api, Config{TableName: "users"}, nil)

	assert.NoError(t, b.Bootstrap(context.Background()))
	assert.Equal(t, 0, api.describes)
}

func TestBootstrapReportsOtherErrors(t *testing.T) {
	cause := errors.New("connection refused")
	api := &fakeTableAPI{createErr: cause}
	b := NewTableBootstrapper(api, Config{WaitTimeout: -1}, nil)

	err := b.Bootstrap(context.Background())
	assert.True(t, errors.Is(err, cause))
}

func TestBootstrapWithoutWaiting(t *testing.T) {
	api := &fakeTableAPI{}
	b := NewTableBootstrapper(api, Config{WaitTimeout: -1}, nil)

	assert.NoError(t, b.Bootstrap(context.Background()))
	assert.Equal(t, 0, api.describes)
}

func TestDefaultEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:4567", DefaultEndpoint(false))
	assert.Equal(t, "http://docker:4567", DefaultEndpoint(true))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(context.Background(), Config{Endpoint: DefaultEndpoint(false)})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, c.Options().Region)
	assert.Equal(t, DefaultEndpoint(false), aws.ToString(c.Options().BaseEndpoint))
}
