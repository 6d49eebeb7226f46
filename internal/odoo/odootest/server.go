// Package odootest provides an in-memory Odoo JSON-RPC endpoint for tests.
// It evaluates search_read domains (prefix notation with '&', '|' and '!'),
// orders by write_date then id, and honours limit and offset, so paging
// strategies can be exercised against data that changes between requests.
package odootest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
)

// Call is one JSON-RPC request as received.
type Call struct {
	Service string
	Method  string
	Args    []json.RawMessage
}

// Kwargs decodes the keyword arguments of an execute_kw call.
func (c Call) Kwargs() map[string]any {
	if len(c.Args) < 7 {
		return nil
	}
	var kwargs map[string]any
	_ = json.Unmarshal(c.Args[6], &kwargs)
	return kwargs
}

// Server answers /jsonrpc. Fields may be changed between requests; they are
// read under the server lock.
type Server struct {
	mu sync.Mutex

	// UID is returned by common.authenticate (use false to reject).
	UID any
	// Partners is the res.partner table. Rows are maps so tests can send
	// Odoo's false/null markers and malformed values.
	Partners []map[string]any
	// Error, when set, is returned as the JSON-RPC error payload.
	Error any
	// Status, when non-zero, is written instead of a JSON-RPC response.
	Status int
	// AfterSearch runs after the n-th (1-based) search_read has been
	// answered, with the lock held, and may edit Partners.
	AfterSearch func(n int, partners []map[string]any)

	calls    []Call
	searches int
}

// New returns a server that authenticates as uid 2 and serves partners.
func New(partners ...map[string]any) *Server {
	return &Server{UID: 2, Partners: partners}
}

// Start serves s over HTTP until the test ends and returns the base URL.
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv.URL
}

// Calls returns a copy of every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Reset forgets recorded calls and the search counter.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.searches = 0
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/jsonrpc" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req struct {
		ID     int64 `json:"id"`
		Params struct {
			Service string            `json:"service"`
			Method  string            `json:"method"`
			Args    []json.RawMessage `json:"args"`
		} `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	call := Call{Service: req.Params.Service, Method: req.Params.Method, Args: req.Params.Args}
	s.calls = append(s.calls, call)

	if s.Status != 0 {
		w.WriteHeader(s.Status)
		return
	}
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if s.Error != nil {
		resp["error"] = s.Error
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	switch call.Service + "." + call.Method {
	case "common.authenticate":
		resp["result"] = s.UID
	case "object.execute_kw":
		rows, err := s.search(call.Kwargs())
		if err != nil {
			resp["error"] = map[string]any{"code": 200, "message": err.Error()}
			break
		}
		// Encode before AfterSearch can edit the rows.
		body, _ := json.Marshal(rows)
		resp["result"] = json.RawMessage(body)
		s.searches++
		if s.AfterSearch != nil {
			s.AfterSearch(s.searches, s.Partners)
		}
	default:
		resp["error"] = map[string]any{"code": 404, "message": "unknown method " + call.Service + "." + call.Method}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) search(kwargs map[string]any) ([]map[string]any, error) {
	domain, _ := kwargs["domain"].([]any)
	rows := make([]map[string]any, 0, len(s.Partners))
	for _, p := range s.Partners {
		ok, err := match(domain, p)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, p)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := compare(rows[i]["write_date"], rows[j]["write_date"]); c != 0 {
			return c < 0
		}
		return compare(rows[i]["id"], rows[j]["id"]) < 0
	})

	if offset, ok := kwargs["offset"].(float64); ok && offset > 0 {
		if int(offset) >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[int(offset):]
		}
	}
	if limit, ok := kwargs["limit"].(float64); ok && limit > 0 && int(limit) < len(rows) {
		rows = rows[:int(limit)]
	}
	return rows, nil
}

// match evaluates a domain with Odoo's implicit AND between top-level terms.
func match(domain []any, row map[string]any) (bool, error) {
	result := true
	for i := 0; i < len(domain); {
		v, next, err := eval(domain, i, row)
		if err != nil {
			return false, err
		}
		result = result && v
		i = next
	}
	return result, nil
}

func eval(domain []any, i int, row map[string]any) (bool, int, error) {
	if i >= len(domain) {
		return false, i, fmt.Errorf("domain ends early")
	}
	switch term := domain[i].(type) {
	case string:
		switch term {
		case "!":
			v, next, err := eval(domain, i+1, row)
			return !v, next, err
		case "&", "|":
			a, next, err := eval(domain, i+1, row)
			if err != nil {
				return false, next, err
			}
			b, next, err := eval(domain, next, row)
			if term == "&" {
				return a && b, next, err
			}
			return a || b, next, err
		}
		return false, i, fmt.Errorf("unknown domain operator %q", term)
	case []any:
		if len(term) != 3 {
			return false, i, fmt.Errorf("malformed domain leaf %v", term)
		}
		field, _ := term[0].(string)
		op, _ := term[1].(string)
		c := compare(row[field], term[2])
		switch op {
		case "=":
			return c == 0, i + 1, nil
		case "!=":
			return c != 0, i + 1, nil
		case ">":
			return c > 0, i + 1, nil
		case ">=":
			return c >= 0, i + 1, nil
		case "<":
			return c < 0, i + 1, nil
		case "<=":
			return c <= 0, i + 1, nil
		}
		return false, i, fmt.Errorf("unknown comparison %q", op)
	}
	return false, i, fmt.Errorf("unexpected domain term %v", domain[i])
}

// compare orders numbers numerically and everything else as strings, which
// matches Odoo's "YYYY-MM-DD HH:MM:SS" datetime comparison.
func compare(a, b any) int {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
