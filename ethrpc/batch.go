package ethrpc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
)

type BatchCall []*Call

func (b *BatchCall) MarshalJSON() ([]byte, error) {
	if len(*b) == 1 {
		return jsonConfig.Marshal((*b)[0].request)
	}
	reqBody := make([]jsonrpc.Message, len(*b))
	for i, r := range *b {
		reqBody[i] = r.request
	}
	return jsonConfig.Marshal(reqBody)
}

func (b *BatchCall) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("failed to unmarshal batch response: empty body")
	}

	var results []*jsonrpc.Message
	if data[0] != '[' {
		results = make([]*jsonrpc.Message, 1)
		if err := jsonConfig.Unmarshal(data, &results[0]); err != nil {
			return fmt.Errorf("failed to unmarshal batch response: %w", err)
		}
	} else {
		if err := jsonConfig.Unmarshal(data, &results); err != nil {
			return fmt.Errorf("failed to unmarshal batch response: %w", err)
		}
	}
	if len(results) == 0 {
		return fmt.Errorf("failed to unmarshal batch response: empty result set")
	}

	callByID := make(map[uint64]*Call, len(*b))
	for i, call := range *b {
		if call == nil {
			return fmt.Errorf("nil call at index %d", i)
		}
		id := call.request.ID
		if _, exists := callByID[id]; exists {
			return fmt.Errorf("duplicate request id %d", id)
		}
		callByID[id] = call
	}

	for i, msg := range results {
		if msg == nil {
			return fmt.Errorf("nil response at index %d", i)
		}
		call, ok := callByID[msg.ID]
		if !ok {
			// a node rejecting the whole batch answers with a single error and a null id
			if msg.Error != nil && len(results) == 1 {
				for _, c := range *b {
					c.response = msg
					c.err = *msg.Error
				}
				return nil
			}
			return fmt.Errorf("response id %d does not match any request", msg.ID)
		}
		if call.response != nil {
			return fmt.Errorf("duplicate response for id %d", msg.ID)
		}
		call.response = msg
		if msg.Error != nil {
			call.err = *msg.Error
		}
	}
	return nil
}

func (b *BatchCall) ErrorOrNil() error {
	err := make(BatchError)
	for i, r := range *b {
		if r.err != nil {
			err[i] = r
		}
	}
	if len(err) > 0 {
		return err
	}
	return nil
}

// BatchError maps the index of each failed call in a batch to the call itself.
type BatchError map[int]*Call

func (e BatchError) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e.Unwrap().Error()
	}
	msgs := make([]string, 0, len(e))
	for _, i := range e.indexes() {
		msgs = append(msgs, e[i].Error())
	}
	return fmt.Sprintf("%d errors: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap returns the failed call with the lowest index.
func (e BatchError) Unwrap() error {
	indexes := e.indexes()
	if len(indexes) == 0 {
		return nil
	}
	return e[indexes[0]]
}

func (e BatchError) indexes() []int {
	indexes := make([]int, 0, len(e))
	for i := range e {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return indexes
}
