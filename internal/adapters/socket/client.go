package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/carrick/snomap/internal/ports"
)

// Client talks to a running daemon over its Unix socket. It implements
// ports.Querier, so callers cannot tell whether they are querying a daemon
// or an in-process engine.
type Client struct {
	sockPath string
	reqID    int
}

// NewClient creates a client for the daemon at the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Ping checks whether a daemon is responsive at the socket path.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// call sends a single request and decodes the result into out (which may be
// nil for methods without a payload).
func (c *Client) call(method string, params interface{}, out interface{}) error {
	return c.callWithTimeout(method, params, out, 5*time.Second)
}

func (c *Client) callWithTimeout(method string, params interface{}, out interface{}, timeout time.Duration) error {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	c.reqID++
	req := Request{ID: strconv.Itoa(c.reqID), Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return fmt.Errorf("daemon closed connection")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}

	if out != nil {
		// Result arrived as interface{}; re-marshal into the typed shape.
		resultJSON, err := json.Marshal(resp.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := json.Unmarshal(resultJSON, out); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// Search queries the daemon for concepts matching the text.
func (c *Client) Search(text string) (SearchResult, error) {
	var result SearchResult
	err := c.call(MethodSearch, SearchParams{Text: text}, &result)
	return result, err
}

// Unique asks the daemon whether the text resolves to exactly one cui.
func (c *Client) Unique(text string) (UniqueResult, error) {
	var result UniqueResult
	err := c.call(MethodUnique, SearchParams{Text: text}, &result)
	return result, err
}

// Concept fetches the primary concept and all name rows for a cui.
func (c *Client) Concept(cui int64) (ConceptResult, error) {
	var result ConceptResult
	err := c.call(MethodConcept, CUIParams{CUI: cui}, &result)
	return result, err
}

// ParentsOf fetches the direct parents of a cui.
func (c *Client) ParentsOf(cui int64, primaryOnly bool) (ConceptsResult, error) {
	var result ConceptsResult
	err := c.call(MethodParents, CUIParams{CUI: cui, PrimaryOnly: primaryOnly}, &result)
	return result, err
}

// ChildrenOf fetches the direct children of a cui.
func (c *Client) ChildrenOf(cui int64, primaryOnly bool) (ConceptsResult, error) {
	var result ConceptsResult
	err := c.call(MethodChildren, CUIParams{CUI: cui, PrimaryOnly: primaryOnly}, &result)
	return result, err
}

// AncestorsOf fetches the full transitive closure above a cui.
func (c *Client) AncestorsOf(cui int64) (AncestorsResult, error) {
	var result AncestorsResult
	err := c.call(MethodAncestors, CUIParams{CUI: cui}, &result)
	return result, err
}

// Stats fetches table-level counts from the daemon.
func (c *Client) Stats() (StatsResult, error) {
	var result StatsResult
	err := c.call(MethodStats, nil, &result)
	return result, err
}

// Health fetches the daemon's health report.
func (c *Client) Health() (HealthResult, error) {
	var result HealthResult
	err := c.call(MethodHealth, nil, &result)
	return result, err
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown() error {
	return c.callWithTimeout(MethodShutdown, nil, nil, 2*time.Second)
}

// --- ports.Querier ---

// FindConcepts implements ports.Querier.
func (c *Client) FindConcepts(text string) ([]ports.Concept, error) {
	result, err := c.Search(text)
	if err != nil {
		return nil, err
	}
	return result.Concepts, nil
}

// FindUniqueCUI implements ports.Querier.
func (c *Client) FindUniqueCUI(text string) (int64, bool, error) {
	result, err := c.Unique(text)
	if err != nil {
		return 0, false, err
	}
	return result.CUI, result.OK, nil
}

// PrimaryConcept implements ports.Querier.
func (c *Client) PrimaryConcept(cui int64) (ports.Concept, error) {
	result, err := c.Concept(cui)
	if err != nil {
		return ports.Concept{}, err
	}
	return result.Primary, nil
}

// ConceptRows implements ports.Querier.
func (c *Client) ConceptRows(cui int64) ([]ports.Concept, error) {
	result, err := c.Concept(cui)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// Parents implements ports.Querier.
func (c *Client) Parents(cui int64, primaryOnly bool) ([]ports.Concept, error) {
	result, err := c.ParentsOf(cui, primaryOnly)
	if err != nil {
		return nil, err
	}
	return result.Concepts, nil
}

// Children implements ports.Querier.
func (c *Client) Children(cui int64, primaryOnly bool) ([]ports.Concept, error) {
	result, err := c.ChildrenOf(cui, primaryOnly)
	if err != nil {
		return nil, err
	}
	return result.Concepts, nil
}

// Ancestors implements ports.Querier.
func (c *Client) Ancestors(cui int64) ([]ports.Ancestor, error) {
	result, err := c.AncestorsOf(cui)
	if err != nil {
		return nil, err
	}
	return result.Ancestors, nil
}
