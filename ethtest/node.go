package ethtest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/0xsequence/ethtxkit/ethrpc/jsonrpc"
)

// Handler answers one JSONRPC method call. Returning a jsonrpc.Error sends it
// to the client verbatim; any other error is sent with code -32000.
type Handler func(params []json.RawMessage) (any, error)

// Node is an in-process JSONRPC node backed by httptest. It answers single and
// batched requests from scripted handlers and records every call it receives.
type Node struct {
	srv *httptest.Server

	mu         sync.Mutex
	handlers   map[string]Handler
	calls      map[string][][]json.RawMessage
	roundTrips int
	gates      map[string]*Gate
}

func NewNode() *Node {
	n := &Node{
		handlers: map[string]Handler{},
		calls:    map[string][][]json.RawMessage{},
		gates:    map[string]*Gate{},
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	return n
}

func (n *Node) URL() string {
	return n.srv.URL
}

func (n *Node) Close() {
	n.mu.Lock()
	for _, g := range n.gates {
		g.Release()
	}
	n.mu.Unlock()
	n.srv.Close()
}

// Handle installs h for method, replacing any previous handler.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Result makes method always answer with result.
func (n *Node) Result(method string, result any) {
	n.Handle(method, func([]json.RawMessage) (any, error) {
		return result, nil
	})
}

// Fail makes method always answer with a JSONRPC error.
func (n *Node) Fail(method string, code int, message string) {
	n.Handle(method, func([]json.RawMessage) (any, error) {
		return nil, jsonrpc.Error{Code: code, Message: message}
	})
}

// Hold makes requests containing method wait until the returned gate is
// released or the client goes away.
func (n *Node) Hold(method string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gates[method] = g
	return g
}

// Calls returns the number of times method was called.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[method])
}

// Params returns the params of every call to method, in arrival order.
func (n *Node) Params(method string) [][]json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]json.RawMessage(nil), n.calls[method]...)
}

// TotalCalls returns the number of method calls across all requests.
func (n *Node) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, c := range n.calls {
		total += len(c)
	}
	return total
}

// RoundTrips returns the number of HTTP requests served.
func (n *Node) RoundTrips() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.roundTrips
}

type request struct {
	Version string            `json:"jsonrpc"`
	ID      uint64            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

func (n *Node) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	batched := body[0] == '['
	var reqs []request
	if batched {
		err = json.Unmarshal(body, &reqs)
	} else {
		reqs = make([]request, 1)
		err = json.Unmarshal(body, &reqs[0])
	}
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.roundTrips++
	var gates []*Gate
	for _, req := range reqs {
		n.calls[req.Method] = append(n.calls[req.Method], req.Params)
		if g, ok := n.gates[req.Method]; ok {
			gates = append(gates, g)
		}
	}
	n.mu.Unlock()

	for _, g := range gates {
		g.arrive()
		select {
		case <-g.release:
		case <-r.Context().Done():
			return
		}
	}

	resps := make([]jsonrpc.Message, len(reqs))
	for i, req := range reqs {
		resps[i] = n.answer(req)
	}

	w.Header().Set("Content-Type", "application/json")
	if batched {
		json.NewEncoder(w).Encode(resps)
	} else {
		json.NewEncoder(w).Encode(resps[0])
	}
}

func (n *Node) answer(req request) jsonrpc.Message {
	n.mu.Lock()
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := jsonrpc.Message{Version: jsonrpc.Version, ID: req.ID}
	if !ok {
		resp.Error = &jsonrpc.Error{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
		return resp
	}

	result, err := h(req.Params)
	if err != nil {
		var rpcErr jsonrpc.Error
		if errors.As(err, &rpcErr) {
			resp.Error = &rpcErr
		} else {
			resp.Error = &jsonrpc.Error{Code: -32000, Message: err.Error()}
		}
		return resp
	}

	raw, err := json.Marshal(result)
	if err != nil {
		resp.Error = &jsonrpc.Error{Code: -32603, Message: err.Error()}
		return resp
	}
	resp.Result = raw
	return resp
}

// Gate holds requests for a method until released.
type Gate struct {
	once    sync.Once
	arrived chan struct{}
	relOnce sync.Once
	release chan struct{}
}

// Arrived is closed once the first held request reaches the node.
func (g *Gate) Arrived() <-chan struct{} {
	return g.arrived
}

func (g *Gate) Release() {
	g.relOnce.Do(func() { close(g.release) })
}

func (g *Gate) arrive() {
	g.once.Do(func() { close(g.arrived) })
}
