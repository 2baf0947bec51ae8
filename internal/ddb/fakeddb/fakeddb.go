// Package fakeddb is an in-memory stand-in for the DynamoDB operations used
// to empty tables. It keeps items ordered by key so that scan pagination
// survives deletes between pages, and it records every call for assertions.
package fakeddb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/interfaces"
)

const DefaultPageSize = 1000

var _ interfaces.DynamoDBAPI = (*Store)(nil)

type Calls struct {
	DescribeTable  int
	Scan           int
	BatchWriteItem int
}

func (c Calls) Total() int {
	return c.DescribeTable + c.Scan + c.BatchWriteItem
}

type table struct {
	partitionKey string
	rangeKey     string
	items        map[string]map[string]types.AttributeValue
}

type Store struct {
	// PageSize is used when a scan carries no Limit.
	PageSize int

	// ScanErr, when set, is consulted before every scan; call is 1-based per table.
	ScanErr func(tableName string, call int) error
	// BatchWriteErr, when set, is consulted before every batch write; call is 1-based per table.
	BatchWriteErr func(tableName string, call int) error
	// Unprocessed, when set, returns how many trailing requests of a batch are
	// handed back as UnprocessedItems instead of being applied.
	Unprocessed func(tableName string, call int) int

	mu          sync.Mutex
	tables      map[string]*table
	describeErr map[string]error
	calls       map[string]*Calls
	scans       []dynamodb.ScanInput
	deletes     map[string][]map[string]types.AttributeValue
}

func New() *Store {
	return &Store{
		PageSize:    DefaultPageSize,
		tables:      make(map[string]*table),
		describeErr: make(map[string]error),
		calls:       make(map[string]*Calls),
		deletes:     make(map[string][]map[string]types.AttributeValue),
	}
}

// CreateTable registers a table; rangeKey may be empty.
func (s *Store) CreateTable(name, partitionKey, rangeKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &table{
		partitionKey: partitionKey,
		rangeKey:     rangeKey,
		items:        make(map[string]map[string]types.AttributeValue),
	}
}

// FailDescribe makes DescribeTable return err for the table.
func (s *Store) FailDescribe(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.describeErr[name] = err
}

func (s *Store) Put(name string, item map[string]types.AttributeValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("fakeddb: table %s does not exist", name)
	}
	id, err := t.keyID(item)
	if err != nil {
		return err
	}
	t.items[id] = item
	return nil
}

func (s *Store) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return len(t.items)
	}
	return 0
}

func (s *Store) Calls(name string) Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calls[name]; ok {
		return *c
	}
	return Calls{}
}

func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, c := range s.calls {
		total += c.Total()
	}
	return total
}

// ScanInputs returns every scan request seen, in arrival order.
func (s *Store) ScanInputs() []dynamodb.ScanInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dynamodb.ScanInput, len(s.scans))
	copy(out, s.scans)
	return out
}

// DeletedKeys returns the keys of every applied delete request for a table.
func (s *Store) DeletedKeys(name string) []map[string]types.AttributeValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]types.AttributeValue, len(s.deletes[name]))
	copy(out, s.deletes[name])
	return out
}

func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := aws.ToString(params.TableName)
	s.callsFor(name).DescribeTable++

	if err := s.describeErr[name]; err != nil {
		return nil, err
	}
	t, ok := s.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
	}

	keySchema := []types.KeySchemaElement{
		{AttributeName: aws.String(t.partitionKey), KeyType: types.KeyTypeHash},
	}
	if t.rangeKey != "" {
		keySchema = append(keySchema, types.KeySchemaElement{AttributeName: aws.String(t.rangeKey), KeyType: types.KeyTypeRange})
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   aws.String(name),
			TableStatus: types.TableStatusActive,
			KeySchema:   keySchema,
			ItemCount:   aws.Int64(int64(len(t.items))),
		},
	}, nil
}

func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := aws.ToString(params.TableName)
	calls := s.callsFor(name)
	calls.Scan++
	s.scans = append(s.scans, *params)

	if s.ScanErr != nil {
		if err := s.ScanErr(name, calls.Scan); err != nil {
			return nil, err
		}
	}
	t, ok := s.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}

	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if params.ExclusiveStartKey != nil {
		start, err := t.keyID(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		ids = ids[sort.SearchStrings(ids, start):]
		if len(ids) > 0 && ids[0] == start {
			ids = ids[1:]
		}
	}

	limit := s.PageSize
	if params.Limit != nil {
		limit = int(aws.ToInt32(params.Limit))
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	more := len(ids) > limit
	if more {
		ids = ids[:limit]
	}

	projection := resolveProjection(params.ProjectionExpression, params.ExpressionAttributeNames)
	out := &dynamodb.ScanOutput{
		Items:        make([]map[string]types.AttributeValue, 0, len(ids)),
		Count:        int32(len(ids)),
		ScannedCount: int32(len(ids)),
	}
	for _, id := range ids {
		out.Items = append(out.Items, project(t.items[id], projection))
	}
	if more {
		out.LastEvaluatedKey = t.key(t.items[ids[len(ids)-1]])
	}
	return out, nil
}

func (s *Store) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]types.WriteRequest),
	}
	total := 0
	for _, reqs := range params.RequestItems {
		total += len(reqs)
	}
	if total == 0 || total > 25 {
		return nil, &validationError{msg: fmt.Sprintf("batch must carry between 1 and 25 requests, got %d", total)}
	}

	for name, reqs := range params.RequestItems {
		calls := s.callsFor(name)
		calls.BatchWriteItem++
		if s.BatchWriteErr != nil {
			if err := s.BatchWriteErr(name, calls.BatchWriteItem); err != nil {
				return nil, err
			}
		}
		t, ok := s.tables[name]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
		}

		applied := reqs
		if s.Unprocessed != nil {
			n := min(s.Unprocessed(name, calls.BatchWriteItem), len(reqs))
			if n > 0 {
				applied = reqs[:len(reqs)-n]
				out.UnprocessedItems[name] = reqs[len(reqs)-n:]
			}
		}

		for _, req := range applied {
			if req.DeleteRequest == nil {
				return nil, &validationError{msg: "only delete requests are supported"}
			}
			key := req.DeleteRequest.Key
			if len(key) != t.keyLen() {
				return nil, &validationError{msg: "The provided key element does not match the schema"}
			}
			id, err := t.keyID(key)
			if err != nil {
				return nil, err
			}
			delete(t.items, id)
			s.deletes[name] = append(s.deletes[name], key)
		}
		out.ConsumedCapacity = append(out.ConsumedCapacity, types.ConsumedCapacity{
			TableName:     aws.String(name),
			CapacityUnits: aws.Float64(float64(len(applied))),
		})
	}
	return out, nil
}

func (s *Store) callsFor(name string) *Calls {
	c, ok := s.calls[name]
	if !ok {
		c = &Calls{}
		s.calls[name] = c
	}
	return c
}

func (t *table) keyLen() int {
	if t.rangeKey != "" {
		return 2
	}
	return 1
}

func (t *table) key(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{t.partitionKey: item[t.partitionKey]}
	if t.rangeKey != "" {
		key[t.rangeKey] = item[t.rangeKey]
	}
	return key
}

func (t *table) keyID(item map[string]types.AttributeValue) (string, error) {
	hash, err := scalar(item[t.partitionKey])
	if err != nil {
		return "", &validationError{msg: fmt.Sprintf("missing or invalid key attribute %s: %v", t.partitionKey, err)}
	}
	if t.rangeKey == "" {
		return hash, nil
	}
	rng, err := scalar(item[t.rangeKey])
	if err != nil {
		return "", &validationError{msg: fmt.Sprintf("missing or invalid key attribute %s: %v", t.rangeKey, err)}
	}
	return hash + "\x00" + rng, nil
}

func scalar(av types.AttributeValue) (string, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N:" + v.Value, nil
	case *types.AttributeValueMemberB:
		return "B:" + string(v.Value), nil
	case nil:
		return "", fmt.Errorf("attribute absent")
	default:
		return "", fmt.Errorf("unsupported key type %T", av)
	}
}

func resolveProjection(expr *string, names map[string]string) []string {
	if expr == nil {
		return nil
	}
	var attrs []string
	for _, part := range strings.Split(aws.ToString(expr), ",") {
		part = strings.TrimSpace(part)
		if resolved, ok := names[part]; ok {
			part = resolved
		}
		if part != "" {
			attrs = append(attrs, part)
		}
	}
	return attrs
}

func project(item map[string]types.AttributeValue, attrs []string) map[string]types.AttributeValue {
	if attrs == nil {
		out := make(map[string]types.AttributeValue, len(item))
		for k, v := range item {
			out[k] = v
		}
		return out
	}
	out := make(map[string]types.AttributeValue, len(attrs))
	for _, a := range attrs {
		if v, ok := item[a]; ok {
			out[a] = v
		}
	}
	return out
}

// validationError mimics the ValidationException the service returns.
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return "ValidationException: " + e.msg
}
