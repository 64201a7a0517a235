// Package drivertest provides a recording GraphDriver for tests.
package drivertest

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Call struct {
	Query  string
	Params map[string]interface{}
}

// Driver records every query. Handler, when set, decides the result;
// otherwise queued results are returned in order and then Default.
type Driver struct {
	mu      sync.Mutex
	Calls   []Call
	Queue   []neo4j.EagerResult
	Default neo4j.EagerResult
	Err     error
	Handler func(query string, params map[string]interface{}) (neo4j.EagerResult, error)
}

func (d *Driver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, Call{Query: query, Params: params})
	if d.Handler != nil {
		return d.Handler(query, params)
	}
	if d.Err != nil {
		return neo4j.EagerResult{}, d.Err
	}
	if len(d.Queue) > 0 {
		r := d.Queue[0]
		d.Queue = d.Queue[1:]
		return r, nil
	}
	return d.Default, nil
}

func (d *Driver) BuildIndices(ctx context.Context) error { return nil }

func (d *Driver) Close(ctx context.Context) error { return nil }

// Matching returns the recorded calls whose query contains fragment.
func (d *Driver) Matching(fragment string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.Calls {
		if strings.Contains(c.Query, fragment) {
			out = append(out, c)
		}
	}
	return out
}

// Result builds an eager result with one record per row.
func Result(keys []string, rows ...[]any) neo4j.EagerResult {
	res := neo4j.EagerResult{Keys: keys}
	for _, row := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: row})
	}
	return res
}
