// Package socket implements a JSON-over-Unix-socket protocol for the snomap
// daemon. The protocol uses newline-delimited JSON: each message is one JSON
// object + \n. The daemon holds the parsed terminology in memory so repeated
// CLI invocations skip the multi-second release load.
package socket

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"github.com/carrick/snomap/internal/ports"
)

// SocketPath returns the Unix socket path for a given definitions root.
// Format: /tmp/snomap-{first12hex}.sock
func SocketPath(definitionsRoot string) string {
	abs, err := filepath.Abs(definitionsRoot)
	if err != nil {
		abs = definitionsRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/snomap-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodSearch    = "search"
	MethodUnique    = "unique"
	MethodConcept   = "concept"
	MethodParents   = "parents"
	MethodChildren  = "children"
	MethodAncestors = "ancestors"
	MethodStats     = "stats"
	MethodHealth    = "health"
	MethodShutdown  = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SearchParams is the params for a search or unique request.
type SearchParams struct {
	Text string `json:"text"`
}

// SearchResult is the result of a search request.
type SearchResult struct {
	Concepts []ports.Concept `json:"concepts"`
	Count    int             `json:"count"`
	Elapsed  string          `json:"elapsed"`
}

// UniqueResult is the result of a unique request.
type UniqueResult struct {
	CUI int64 `json:"cui"`
	OK  bool  `json:"ok"`
}

// CUIParams is the params for concept, parents, children, and ancestors
// requests.
type CUIParams struct {
	CUI         int64 `json:"cui"`
	PrimaryOnly bool  `json:"primary_only,omitempty"`
}

// ConceptResult is the result of a concept request: the primary row plus
// every name row for the CUI.
type ConceptResult struct {
	Primary ports.Concept   `json:"primary"`
	Rows    []ports.Concept `json:"rows"`
}

// ConceptsResult is the result of a parents or children request.
type ConceptsResult struct {
	Concepts []ports.Concept `json:"concepts"`
	Count    int             `json:"count"`
}

// AncestorsResult is the result of an ancestors request.
type AncestorsResult struct {
	Ancestors []ports.Ancestor `json:"ancestors"`
	Count     int              `json:"count"`
}

// StatsResult is the result of a stats request.
type StatsResult struct {
	Releases     []string `json:"releases"`
	ConceptCount int      `json:"concept_count"`
	CUICount     int      `json:"cui_count"`
	EdgeCount    int      `json:"edge_count"`
}

// HealthResult is the result of a health request. Stale is set when a
// release file changed on disk after the daemon loaded it.
type HealthResult struct {
	Status       string `json:"status"`
	Stale        bool   `json:"stale"`
	ConceptCount int    `json:"concept_count"`
	EdgeCount    int    `json:"edge_count"`
	Uptime       string `json:"uptime"`
}
