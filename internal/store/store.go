// Package store is the single point of read/write for every persisted
// entity. All entity types share one table, discriminated by an entity_type
// attribute and addressed by the key scheme in keys.go.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrNotFound is returned for point lookups that match nothing.
	ErrNotFound = errors.New("store: item not found")
	// ErrConflict is returned when a conditional write loses: duplicate key
	// on PutNew, or a guard condition on Mutate no longer holding.
	ErrConflict = errors.New("store: conditional write failed")
)

// API is the slice of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type Store struct {
	db    API
	table string
}

func New(db API, table string) *Store {
	return &Store{db: db, table: table}
}

func (s *Store) marshal(e Entity) (map[string]types.AttributeValue, error) {
	keys, err := e.Keys()
	if err != nil {
		return nil, err
	}
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, err
	}
	for name, av := range keys.attributes() {
		item[name] = av
	}
	return item, nil
}

// Put writes the item and its full key set in one request, replacing any
// existing item with the same primary key.
func (s *Store) Put(ctx context.Context, e Entity) error {
	item, err := s.marshal(e)
	if err != nil {
		return err
	}
	return s.retry(ctx, func(ctx context.Context) error {
		_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      item,
		})
		return err
	})
}

// PutNew writes the item only if no item with the same primary key exists.
func (s *Store) PutNew(ctx context.Context, e Entity) error {
	item, err := s.marshal(e)
	if err != nil {
		return err
	}
	return s.retry(ctx, func(ctx context.Context) error {
		_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		return translateConditional(err)
	})
}

// Get does a point lookup. Absence is ErrNotFound, never an empty struct.
func (s *Store) Get(ctx context.Context, pk, sk string, out any) error {
	var item map[string]types.AttributeValue
	err := s.retry(ctx, func(ctx context.Context) error {
		resp, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.table),
			Key:       primaryKey(pk, sk),
		})
		if err != nil {
			return err
		}
		item = resp.Item
		return nil
	})
	if err != nil {
		return err
	}
	if len(item) == 0 {
		return ErrNotFound
	}
	return attributevalue.UnmarshalMap(item, out)
}

// Query options for index reads.
type Query struct {
	Descending bool
	Limit      int32
}

// QueryIndex lists the items of one secondary-index partition, ordered by
// the index sort key. Index reads are eventually consistent: a write that
// just happened may not show up yet.
func (s *Store) QueryIndex(ctx context.Context, index, partition string, q Query, out any) error {
	items, err := s.queryRaw(ctx, index, partition, q)
	if err != nil {
		return err
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

func (s *Store) queryRaw(ctx context.Context, index, partition string, q Query) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var exclusiveStart map[string]types.AttributeValue
	for {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(index),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": index + "PK",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: partition},
			},
			ScanIndexForward:  aws.Bool(!q.Descending),
			ExclusiveStartKey: exclusiveStart,
		}
		if q.Limit > 0 {
			in.Limit = aws.Int32(q.Limit)
		}
		var resp *dynamodb.QueryOutput
		err := s.retry(ctx, func(ctx context.Context) error {
			var err error
			resp, err = s.db.Query(ctx, in)
			return err
		})
		if err != nil {
			return nil, err
		}
		items = append(items, resp.Items...)
		if q.Limit > 0 && int32(len(items)) >= q.Limit {
			return items[:q.Limit], nil
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return items, nil
		}
		exclusiveStart = resp.LastEvaluatedKey
	}
}

// CountIndex counts the items of one secondary-index partition without
// reading them back.
func (s *Store) CountIndex(ctx context.Context, index, partition string) (int64, error) {
	var total int64
	var exclusiveStart map[string]types.AttributeValue
	for {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(index),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": index + "PK",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: partition},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: exclusiveStart,
		}
		var resp *dynamodb.QueryOutput
		err := s.retry(ctx, func(ctx context.Context) error {
			var err error
			resp, err = s.db.Query(ctx, in)
			return err
		})
		if err != nil {
			return 0, err
		}
		total += int64(resp.Count)
		if len(resp.LastEvaluatedKey) == 0 {
			return total, nil
		}
		exclusiveStart = resp.LastEvaluatedKey
	}
}

// Scan walks the whole table with a filter expression. No index exists for
// every ad hoc filter combination; at this catalog's size a full scan is the
// accepted fallback. Attribute names in expr must use #name placeholders
// from names, values the :value placeholders from values.
func (s *Store) Scan(ctx context.Context, expr string, names map[string]string, values map[string]any, out any) error {
	avs := make(map[string]types.AttributeValue, len(values))
	for k, v := range values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return err
		}
		avs[k] = av
	}
	var items []map[string]types.AttributeValue
	var exclusiveStart map[string]types.AttributeValue
	for {
		in := &dynamodb.ScanInput{
			TableName:                 aws.String(s.table),
			FilterExpression:          aws.String(expr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: avs,
			ExclusiveStartKey:         exclusiveStart,
		}
		var resp *dynamodb.ScanOutput
		err := s.retry(ctx, func(ctx context.Context) error {
			var err error
			resp, err = s.db.Scan(ctx, in)
			return err
		})
		if err != nil {
			return err
		}
		items = append(items, resp.Items...)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		exclusiveStart = resp.LastEvaluatedKey
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// Mutation is a partial in-place update: SET the given attributes, ADD the
// given deltas, optionally guarded by required current values. A failed
// guard surfaces as ErrConflict.
type Mutation struct {
	Set      map[string]any
	Add      map[string]int64
	IfEquals map[string]any
}

func (s *Store) Mutate(ctx context.Context, pk, sk string, m Mutation) error {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var setParts, addParts, condParts []string

	i := 0
	for attr, v := range m.Set {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return err
		}
		n, p := fmt.Sprintf("#s%d", i), fmt.Sprintf(":s%d", i)
		names[n] = attr
		values[p] = av
		setParts = append(setParts, n+" = "+p)
		i++
	}
	i = 0
	for attr, d := range m.Add {
		n, p := fmt.Sprintf("#a%d", i), fmt.Sprintf(":a%d", i)
		names[n] = attr
		values[p] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", d)}
		addParts = append(addParts, n+" "+p)
		i++
	}
	i = 0
	for attr, v := range m.IfEquals {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return err
		}
		n, p := fmt.Sprintf("#c%d", i), fmt.Sprintf(":c%d", i)
		names[n] = attr
		values[p] = av
		condParts = append(condParts, n+" = "+p)
		i++
	}

	var update string
	if len(setParts) > 0 {
		update += "SET " + join(setParts)
	}
	if len(addParts) > 0 {
		if update != "" {
			update += " "
		}
		update += "ADD " + join(addParts)
	}
	if update == "" {
		return errors.New("store: empty mutation")
	}

	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       primaryKey(pk, sk),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		// the item itself has to exist; ADD on a missing item would
		// materialize a keys-only ghost
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}
	if len(condParts) > 0 {
		*in.ConditionExpression += " AND " + join(condParts)
	}
	return s.retry(ctx, func(ctx context.Context) error {
		_, err := s.db.UpdateItem(ctx, in)
		return translateConditional(err)
	})
}

func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	return s.retry(ctx, func(ctx context.Context) error {
		_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key:       primaryKey(pk, sk),
		})
		return err
	})
}

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func join(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func translateConditional(err error) error {
	var cond *types.ConditionalCheckFailedException
	if errors.As(err, &cond) {
		return ErrConflict
	}
	return err
}

// retry runs op, and on a throttling error waits one jittered backoff and
// tries once more. Every caller here is either a read or a conditional/keyed
// write, so a duplicate attempt is safe.
func (s *Store) retry(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !isThrottle(err) {
		return err
	}
	backoff := 150*time.Millisecond + time.Duration(rand.Intn(150))*time.Millisecond
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return op(ctx)
}

func isThrottle(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var limit *types.RequestLimitExceeded
	if errors.As(err, &limit) {
		return true
	}
	var api smithy.APIError
	if errors.As(err, &api) && api.ErrorCode() == "ThrottlingException" {
		return true
	}
	return false
}
