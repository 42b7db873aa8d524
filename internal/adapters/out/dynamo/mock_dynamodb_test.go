package dynamo

import (
	"context"
	"errors"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo understands exactly the expressions OrderRepository sends.
type fakeDynamo struct {
	mu          sync.Mutex
	tableExists bool
	createCalls int
	items       map[string]map[string]types.AttributeValue
	scanErr     error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tableExists: true,
		items:       map[string]map[string]types.AttributeValue{},
	}
}

func keyOf(attrs map[string]types.AttributeValue) (string, error) {
	s, ok := attrs[attrOrderID].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing order_id")
	}
	return s.Value, nil
}

func numberOf(v types.AttributeValue) string {
	if n, ok := v.(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(
	_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: maps.Clone(f.items[k])}, nil
}

func (f *fakeDynamo) PutItem(
	_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if _, ok := f.items[k]; ok && params.ConditionExpression != nil &&
		*params.ConditionExpression == "attribute_not_exists(order_id)" {
		return nil, &types.ConditionalCheckFailedException{}
	}

	f.items[k] = maps.Clone(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(
	_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options),
) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(*params.UpdateExpression, "ADD ") {
		return f.increment(k, params)
	}

	stored, ok := f.items[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	values := params.ExpressionAttributeValues
	if numberOf(stored[attrVersion]) != numberOf(values[":expected"]) {
		return nil, &types.ConditionalCheckFailedException{Item: maps.Clone(stored)}
	}

	next := maps.Clone(stored)
	next[attrStatus] = values[":status"]
	next[attrVersion] = values[":version"]
	delete(next, attrCourierID)
	delete(next, attrArchivedAt)
	if v, ok := values[":courier"]; ok {
		next[attrCourierID] = v
	}
	if v, ok := values[":archived"]; ok {
		next[attrArchivedAt] = v
	}
	f.items[k] = next

	return &dynamodb.UpdateItemOutput{}, nil
}

// increment serves the counter item: "ADD #seq :one" with UPDATED_NEW.
func (f *fakeDynamo) increment(k string, params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
	attr := params.ExpressionAttributeNames["#seq"]
	step, err := strconv.ParseInt(numberOf(params.ExpressionAttributeValues[":one"]), 10, 64)
	if err != nil {
		return nil, err
	}

	item, ok := f.items[k]
	if !ok {
		item = map[string]types.AttributeValue{attrOrderID: &types.AttributeValueMemberS{Value: k}}
		f.items[k] = item
	}

	var current int64
	if v := numberOf(item[attr]); v != "" {
		if current, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, err
		}
	}
	next := &types.AttributeValueMemberN{Value: strconv.FormatInt(current+step, 10)}
	item[attr] = next

	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{attr: next}}, nil
}

func (f *fakeDynamo) Scan(
	_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options),
) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scanErr != nil {
		return nil, f.scanErr
	}

	want := numberOf(params.ExpressionAttributeValues[":status"])
	unarchivedOnly := strings.Contains(*params.FilterExpression, "attribute_not_exists(archived_at)")

	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		if numberOf(item[attrStatus]) != want {
			continue
		}
		if _, archived := item[attrArchivedAt]; archived && unarchivedOnly {
			continue
		}
		out.Items = append(out.Items, maps.Clone(item))
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(
	_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options),
) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.tableExists {
		return nil, &types.ResourceNotFoundException{}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableStatus: types.TableStatusActive},
	}, nil
}

func (f *fakeDynamo) CreateTable(
	_ context.Context, _ *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options),
) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	f.tableExists = true
	return &dynamodb.CreateTableOutput{}, nil
}
