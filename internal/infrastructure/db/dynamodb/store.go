// Package dynamodb implements ports.Store on a single DynamoDB table with a
// PK/SK primary key and one global secondary index, GSI1 (GSI1PK/GSI1SK).
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Store struct {
	client  API
	table   string
	timeout time.Duration
	now     func() time.Time
}

var (
	_ ports.Store         = (*Store)(nil)
	_ ports.HealthChecker = (*Store)(nil)
)

func NewStore(client API, table string) *Store {
	return &Store{
		client:  client,
		table:   table,
		timeout: defaultTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Table() string { return s.table }

func primaryKey(key ports.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		ports.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		ports.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func decode(av map[string]types.AttributeValue) (ports.Item, error) {
	item := ports.Item{}
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("dynamodb decode: %w", err)
	}
	return item, nil
}

func conditionFailed(err error) (*types.ConditionalCheckFailedException, bool) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ccf, true
	}
	return nil, false
}

func (s *Store) GetItem(ctx context.Context, key ports.Key) (ports.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            primaryKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s/%s: %w", key.PK, key.SK, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return decode(out.Item)
}

func (s *Store) PutItem(ctx context.Context, item ports.Item, opts ports.PutOptions) error {
	key := item.Key()
	if key.PK == "" || key.SK == "" {
		return domain.Validationf("item is missing %s or %s", ports.AttrPK, ports.AttrSK)
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("dynamodb encode: %w", err)
	}

	in := &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: av}
	if opts.IfNotExists {
		expr, err := expression.NewBuilder().
			WithCondition(expression.AttributeNotExists(expression.Name(ports.AttrPK))).
			Build()
		if err != nil {
			return fmt.Errorf("dynamodb put expression: %w", err)
		}
		in.ConditionExpression = expr.Condition()
		in.ExpressionAttributeNames = expr.Names()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.PutItem(ctx, in); err != nil {
		if _, ok := conditionFailed(err); ok {
			return fmt.Errorf("put %s/%s: %w", key.PK, key.SK, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("dynamodb put %s/%s: %w", key.PK, key.SK, err)
	}
	return nil
}

// updateExpression builds the SET/REMOVE/ADD expression of an update and its
// condition: the item must exist and, when requested, carry the expected
// version.
func (s *Store) updateExpression(in ports.UpdateInput) (expression.Expression, error) {
	var upd expression.UpdateBuilder
	for name, v := range in.Set {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		upd = upd.Set(expression.Name(name), expression.Value(v))
	}
	for _, name := range in.Remove {
		if slices.Contains(ports.Immutable, name) {
			continue
		}
		if _, set := in.Set[name]; set {
			continue
		}
		upd = upd.Remove(expression.Name(name))
	}
	if _, ok := in.Set[ports.AttrUpdatedAt]; !ok {
		upd = upd.Set(expression.Name(ports.AttrUpdatedAt), expression.Value(s.now().Format(time.RFC3339Nano)))
	}
	upd = upd.Add(expression.Name(ports.AttrVersion), expression.Value(1))

	cond := expression.AttributeExists(expression.Name(ports.AttrPK))
	if in.ExpectedVersion > 0 {
		cond = cond.And(expression.Name(ports.AttrVersion).Equal(expression.Value(in.ExpectedVersion)))
	}
	return expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
}

func (s *Store) UpdateItem(ctx context.Context, key ports.Key, in ports.UpdateInput) (ports.Item, error) {
	expr, err := s.updateExpression(in)
	if err != nil {
		return nil, fmt.Errorf("dynamodb update expression: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.table),
		Key:                                 primaryKey(key),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if ccf, ok := conditionFailed(err); ok {
			// The old image is only returned when the item exists.
			if len(ccf.Item) == 0 {
				return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("update %s/%s: %w", key.PK, key.SK, domain.ErrConflict)
		}
		return nil, fmt.Errorf("dynamodb update %s/%s: %w", key.PK, key.SK, err)
	}
	return decode(out.Attributes)
}

func (s *Store) DeleteItem(ctx context.Context, key ports.Key) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       primaryKey(key),
	}); err != nil {
		return fmt.Errorf("dynamodb delete %s/%s: %w", key.PK, key.SK, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, in ports.QueryInput) ([]ports.Item, error) {
	return s.query(ctx, "", ports.AttrPK, ports.AttrSK, in)
}

func (s *Store) QueryIndex(ctx context.Context, index string, in ports.QueryInput) ([]ports.Item, error) {
	if index != ports.IndexGSI1 {
		return nil, domain.Validationf("unknown index %q", index)
	}
	return s.query(ctx, index, ports.AttrGSI1PK, ports.AttrGSI1SK, in)
}

// keyCondition translates a QueryInput into a key condition on the given
// partition and sort key attributes.
func keyCondition(pkAttr, skAttr string, in ports.QueryInput) expression.KeyConditionBuilder {
	cond := expression.Key(pkAttr).Equal(expression.Value(in.PK))
	sk := expression.Key(skAttr)
	switch {
	case in.SKPrefix != "":
		cond = cond.And(sk.BeginsWith(in.SKPrefix))
	case in.SKFrom != "" && in.SKTo != "":
		cond = cond.And(sk.Between(expression.Value(in.SKFrom), expression.Value(in.SKTo)))
	case in.SKFrom != "":
		cond = cond.And(sk.GreaterThanEqual(expression.Value(in.SKFrom)))
	case in.SKTo != "":
		cond = cond.And(sk.LessThanEqual(expression.Value(in.SKTo)))
	}
	return cond
}

func (s *Store) query(ctx context.Context, index, pkAttr, skAttr string, in ports.QueryInput) ([]ports.Item, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition(pkAttr, skAttr, in)).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamodb query expression: %w", err)
	}

	req := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!in.Descending),
	}
	if index != "" {
		req.IndexName = aws.String(index)
	} else {
		req.ConsistentRead = aws.Bool(true)
	}
	if in.Limit > 0 {
		req.Limit = aws.Int32(int32(in.Limit))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out []ports.Item
	pages := dynamodb.NewQueryPaginator(s.client, req)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query %s: %w", in.PK, err)
		}
		for _, av := range page.Items {
			item, err := decode(av)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
			if in.Limit > 0 && len(out) == in.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Ping checks that the table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}); err != nil {
		return fmt.Errorf("dynamodb describe %s: %w", s.table, err)
	}
	return nil
}
