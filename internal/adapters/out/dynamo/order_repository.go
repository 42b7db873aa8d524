package dynamo

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// sequenceKey names the counter item that numbers orders in insertion order.
// It is not a UUID, so it never collides with an order.
const sequenceKey = "#sequence"

// OrderRepository implements ports.OrderRepository on one DynamoDB table.
type OrderRepository struct {
	client DynamoDBAPI
	table  string
}

func NewOrderRepository(client DynamoDBAPI, table string) *OrderRepository {
	return &OrderRepository{
		client: client,
		table:  table,
	}
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(toItem(aggregate, seq))
	if err != nil {
		return errors.Wrap(err, "marshal order item")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return errs.NewObjectAlreadyExistsErrorWithCause("order", aggregate.ID().String(), err)
		}
		return errors.Wrap(err, "put item")
	}

	return nil
}

// nextSeq atomically increments the table's counter item. Every process
// sharing the table draws from the same counter; a failed Add leaves a gap.
func (r *OrderRepository) nextSeq(ctx context.Context) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrOrderID: &types.AttributeValueMemberS{Value: sequenceKey},
		},
		UpdateExpression:         aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{"#seq": attrSeq},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, errors.Wrap(err, "next sequence")
	}

	n, ok := out.Attributes[attrSeq].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("next sequence: counter missing from response")
	}
	seq, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "next sequence")
	}
	return seq, nil
}

// Update rewrites the mutable attributes under the condition that the stored
// version equals aggregate.ExpectedVersion().
func (r *OrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	input, err := r.updateInput(aggregate)
	if err != nil {
		return err
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			if len(conflict.Item) == 0 {
				return errs.NewObjectNotFoundError("order", aggregate.ID().String())
			}
			return errs.NewVersionIsInvalidErrorWithCause("order", err)
		}
		return errors.Wrap(err, "update item")
	}

	return nil
}

func (r *OrderRepository) updateInput(aggregate *order.Order) (*dynamodb.UpdateItemInput, error) {
	s := aggregate.Snapshot()

	values := map[string]types.AttributeValue{
		":status":   &types.AttributeValueMemberN{Value: strconv.Itoa(int(s.Status))},
		":version":  &types.AttributeValueMemberN{Value: strconv.FormatInt(s.Version, 10)},
		":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(aggregate.ExpectedVersion(), 10)},
	}
	set := []string{"#status = :status", "#version = :version"}
	var remove []string

	if s.CourierID != nil {
		values[":courier"] = &types.AttributeValueMemberS{Value: s.CourierID.String()}
		set = append(set, attrCourierID+" = :courier")
	} else {
		remove = append(remove, attrCourierID)
	}

	if s.ArchivedAt != nil {
		archivedAt, err := attributevalue.Marshal(*s.ArchivedAt)
		if err != nil {
			return nil, errors.Wrap(err, "marshal archived_at")
		}
		values[":archived"] = archivedAt
		set = append(set, attrArchivedAt+" = :archived")
	} else {
		remove = append(remove, attrArchivedAt)
	}

	expr := "SET " + strings.Join(set, ", ")
	if len(remove) > 0 {
		expr += " REMOVE " + strings.Join(remove, ", ")
	}

	return &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrOrderID: &types.AttributeValueMemberS{Value: s.ID.String()},
		},
		UpdateExpression:                    aws.String(expr),
		ConditionExpression:                 aws.String("attribute_exists(order_id) AND #version = :expected"),
		ExpressionAttributeNames:            map[string]string{"#status": attrStatus, "#version": attrVersion},
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrOrderID: &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "get item")
	}
	if len(out.Item) == 0 {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}

	var item orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errors.Wrap(err, "unmarshal order item")
	}

	return fromItem(item)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	return r.scan(ctx, "#status = :status", status, 0)
}

func (r *OrderRepository) ListDeliveredUnarchived(ctx context.Context, limit int) ([]*order.Order, error) {
	return r.scan(ctx, "#status = :status AND attribute_not_exists(archived_at)", order.Delivered, limit)
}

// scan reads the whole filtered table and sorts it by seq. The filter is
// applied after the read, so cost grows with the table.
func (r *OrderRepository) scan(ctx context.Context, filter string, status order.Status, limit int) ([]*order.Order, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.table),
		FilterExpression:         aws.String(filter),
		ExpressionAttributeNames: map[string]string{"#status": attrStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberN{Value: strconv.Itoa(int(status))},
		},
		ConsistentRead: aws.Bool(true),
	})

	var items []orderItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "scan")
		}

		var batch []orderItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, errors.Wrap(err, "unmarshal order items")
		}
		items = append(items, batch...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Seq != items[j].Seq {
			return items[i].Seq < items[j].Seq
		}
		return items[i].OrderID < items[j].OrderID
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	orders := make([]*order.Order, 0, len(items))
	for _, item := range items {
		o, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
