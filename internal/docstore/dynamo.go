package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tornado/internal/canvas"
)

const projectPrefix = "PROJECT#"

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// projectItem is one board in the single-table layout: PK=PROJECT#<id>.
type projectItem struct {
	PK        string        `dynamodbav:"PK"`
	ProjectID string        `dynamodbav:"ProjectID"`
	Name      string        `dynamodbav:"Name"`
	Nodes     []canvas.Node `dynamodbav:"Nodes"`
	CreatedAt string        `dynamodbav:"CreatedAt"`
	UpdatedAt string        `dynamodbav:"UpdatedAt"`
}

func (it projectItem) project() Project {
	p := Project{ID: it.ProjectID, Name: it.Name}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, it.CreatedAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return p
}

type DynamoStore struct {
	client DynamoAPI
	table  string
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// DynamoOptions locate the table. Endpoint overrides the service URL, as
// for DynamoDB Local.
type DynamoOptions struct {
	Table    string
	Region   string
	Endpoint string
}

// NewDynamoStore builds a client from the default AWS credential chain.
func NewDynamoStore(ctx context.Context, opts DynamoOptions, logger *zap.Logger) (*DynamoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewDynamoStoreWithClient(client, opts.Table, logger), nil
}

func NewDynamoStoreWithClient(client DynamoAPI, table string, logger *zap.Logger) *DynamoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoStore{client: client, table: table, logger: logger, now: time.Now}
}

func projectKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: projectPrefix + id},
	}
}

func (s *DynamoStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *DynamoStore) Load(ctx context.Context, projectID string) ([]canvas.Node, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       projectKey(projectID),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load %s: %w", projectID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var item projectItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamodb: decode %s: %w", projectID, err)
	}
	nodes, dropped := Sanitize(item.Nodes)
	if dropped > 0 {
		s.logger.Warn("dropped invalid nodes", zap.String("project", projectID), zap.Int("count", dropped))
	}
	return nodes, nil
}

func (s *DynamoStore) Save(ctx context.Context, projectID string, nodes []canvas.Node) error {
	if nodes == nil {
		nodes = []canvas.Node{}
	}
	now := s.timestamp()
	update := expression.Set(expression.Name("Nodes"), expression.Value(nodes)).
		Set(expression.Name("ProjectID"), expression.Value(projectID)).
		Set(expression.Name("UpdatedAt"), expression.Value(now)).
		Set(expression.Name("Name"), expression.IfNotExists(expression.Name("Name"), expression.Value(DefaultProjectName))).
		Set(expression.Name("CreatedAt"), expression.IfNotExists(expression.Name("CreatedAt"), expression.Value(now)))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("dynamodb: build update: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       projectKey(projectID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: save %s: %w", projectID, err)
	}
	s.logger.Debug("project saved", zap.String("project", projectID), zap.Int("nodes", len(nodes)))
	return nil
}

func (s *DynamoStore) List(ctx context.Context) ([]Project, error) {
	filter := expression.Name("PK").BeginsWith(projectPrefix)
	proj := expression.NamesList(
		expression.Name("ProjectID"),
		expression.Name("Name"),
		expression.Name("CreatedAt"),
		expression.Name("UpdatedAt"),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb: build scan: %w", err)
	}
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	projects := []Project{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: list: %w", err)
		}
		var items []projectItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("dynamodb: decode list: %w", err)
		}
		for _, it := range items {
			projects = append(projects, it.project())
		}
	}
	sortProjects(projects)
	return projects, nil
}

func (s *DynamoStore) Create(ctx context.Context, name string) (Project, error) {
	id := uuid.NewString()
	now := s.timestamp()
	item, err := attributevalue.MarshalMap(projectItem{
		PK:        projectPrefix + id,
		ProjectID: id,
		Name:      name,
		Nodes:     []canvas.Node{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Project{}, fmt.Errorf("dynamodb: encode project: %w", err)
	}
	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeNotExists()).Build()
	if err != nil {
		return Project{}, fmt.Errorf("dynamodb: build condition: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return Project{}, fmt.Errorf("dynamodb: create: %w", err)
	}
	created := projectItem{ProjectID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	return created.project(), nil
}

func (s *DynamoStore) Rename(ctx context.Context, projectID, name string) error {
	update := expression.Set(expression.Name("Name"), expression.Value(name)).
		Set(expression.Name("UpdatedAt"), expression.Value(s.timestamp()))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("dynamodb: build rename: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       projectKey(projectID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return conditionalErr("rename", projectID, err)
}

func (s *DynamoStore) Delete(ctx context.Context, projectID string) error {
	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeExists()).Build()
	if err != nil {
		return fmt.Errorf("dynamodb: build condition: %w", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      projectKey(projectID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return conditionalErr("delete", projectID, err)
}

func (s *DynamoStore) Close() error { return nil }

// conditionalErr maps a failed attribute_exists check to ErrNotFound.
func conditionalErr(op, projectID string, err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	return fmt.Errorf("dynamodb: %s %s: %w", op, projectID, err)
}
