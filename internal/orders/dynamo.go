package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/rechargehub/pix-reconcile/internal/awsx"
)

// DynamoStore is the multi-node order store backend. The item key attribute
// "order_key" holds either the order id or the transaction id; Save writes
// the record under both, so lookups by either key resolve. The sent-flag and
// status writes are conditional, which is what keeps the at-most-once
// invariant across nodes without the in-process debounce.
type DynamoStore struct {
	client    awsx.DynamoDBAPI
	tableName string
	ttl       time.Duration // drives the expires_at TTL attribute
	nowFunc   func() time.Time
}

// NewDynamoStore creates a store against the given table.
func NewDynamoStore(client awsx.DynamoDBAPI, tableName string, ttl time.Duration) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) putUnderKey(ctx context.Context, key string, o *Order) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	item["order_key"] = &types.AttributeValueMemberS{Value: key}
	// A zero paid_at must stay absent or if_not_exists in MarkPaid would
	// treat it as already set.
	if o.PaidAt.IsZero() {
		delete(item, "paid_at")
	}
	// Eviction is DynamoDB's TTL sweep rather than an in-process one.
	expires := o.CreatedAt.Add(s.ttl).Unix()
	item["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) Save(ctx context.Context, o *Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.nowFunc()
	}
	if err := s.putUnderKey(ctx, o.OrderID, o); err != nil {
		return err
	}
	if o.TransactionID != "" && o.TransactionID != o.OrderID {
		return s.putUnderKey(ctx, o.TransactionID, o)
	}
	return nil
}

// Get fetches an order by either key. Returns (nil, nil) if not found.
func (s *DynamoStore) Get(ctx context.Context, id string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_key": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func (s *DynamoStore) updateBothKeys(ctx context.Context, id string, apply func(ctx context.Context, key string, primary bool) error) error {
	if err := apply(ctx, id, true); err != nil {
		return err
	}
	// Mirror the update under the sibling key; best-effort, the record the
	// reconciler reads is the one addressed by transaction id.
	if o, err := s.Get(ctx, id); err == nil && o != nil {
		for _, sibling := range []string{o.OrderID, o.TransactionID} {
			if sibling != "" && sibling != id {
				_ = apply(ctx, sibling, false)
			}
		}
	}
	return nil
}

func (s *DynamoStore) SetStatus(ctx context.Context, id, expected, next string) error {
	return s.updateBothKeys(ctx, id, func(ctx context.Context, key string, primary bool) error {
		_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
			TableName: &s.tableName,
			Key: map[string]types.AttributeValue{
				"order_key": &types.AttributeValueMemberS{Value: key},
			},
			UpdateExpression:         aws("SET #s = :next"),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":next":     &types.AttributeValueMemberS{Value: next},
				":expected": &types.AttributeValueMemberS{Value: expected},
			},
			ConditionExpression: aws("#s = :expected"),
		})
		if err != nil {
			var cc *types.ConditionalCheckFailedException
			if errors.As(err, &cc) {
				if primary {
					return ErrStatusMismatch
				}
				return nil
			}
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

func (s *DynamoStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return s.updateBothKeys(ctx, id, func(ctx context.Context, key string, primary bool) error {
		_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
			TableName: &s.tableName,
			Key: map[string]types.AttributeValue{
				"order_key": &types.AttributeValueMemberS{Value: key},
			},
			UpdateExpression:         aws("SET #s = :paid, paid_at = if_not_exists(paid_at, :ts)"),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":paid": &types.AttributeValueMemberS{Value: StatusPaid},
				":ts":   &types.AttributeValueMemberS{Value: paidAt.Format(time.RFC3339)},
			},
		})
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

// MarkConversionSent flips the sent-flag with a conditional write so that
// exactly one concurrent caller observes success.
func (s *DynamoStore) MarkConversionSent(ctx context.Context, id string, kind ConversionKind) error {
	attr := "sent_pending"
	if kind == ConversionPaid {
		attr = "sent_paid"
	}
	return s.updateBothKeys(ctx, id, func(ctx context.Context, key string, primary bool) error {
		_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
			TableName: &s.tableName,
			Key: map[string]types.AttributeValue{
				"order_key": &types.AttributeValueMemberS{Value: key},
			},
			UpdateExpression: aws(fmt.Sprintf("SET %s = :true", attr)),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":true":  &types.AttributeValueMemberBOOL{Value: true},
				":false": &types.AttributeValueMemberBOOL{Value: false},
			},
			ConditionExpression: aws(fmt.Sprintf("attribute_not_exists(%s) OR %s = :false", attr, attr)),
		})
		if err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
				if primary {
					return ErrAlreadySent
				}
				return nil
			}
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

// All is not served by the key-value access pattern; the debug listing is a
// single-node concern and the memory backend provides it.
func (s *DynamoStore) All(ctx context.Context) ([]*Order, error) {
	return nil, nil
}

func aws(s string) *string { return &s }
