// Package ports defines the boundary types and interfaces between the
// snomap domain, its adapters, and the application layer.
package ports

// NameStatus classifies a concept name row. Primary is the fully specified
// name; Alternate covers synonyms. The release loader rejects any other
// status code at load time, so downstream code never sees a third value.
type NameStatus string

const (
	Primary   NameStatus = "P"
	Alternate NameStatus = "A"
)

// Concept is one name row for a clinical concept. A single CUI usually has
// several rows: exactly one Primary name plus any number of Alternates per
// release. DescriptionType is the trailing parenthetical of the Primary name
// (e.g. "disorder", "finding") and is empty for Alternate rows.
type Concept struct {
	CUI             int64      `json:"cui"`
	Name            string     `json:"name"`
	Status          NameStatus `json:"status"`
	DescriptionType string     `json:"description_type,omitempty"`
	Release         string     `json:"release"`
}

// IsPrimary reports whether this row carries the concept's primary name.
func (c Concept) IsPrimary() bool {
	return c.Status == Primary
}

// Edge is one is-a assertion: the source concept is a child of the
// destination concept.
type Edge struct {
	SourceCUI      int64  `json:"source_cui"`
	DestinationCUI int64  `json:"destination_cui"`
	Release        string `json:"release"`
}

// Ancestor is a concept reached by walking is-a edges upward, tagged with
// the minimum number of hops from the starting concept.
type Ancestor struct {
	Concept Concept `json:"concept"`
	Level   int     `json:"level"`
}

// ReleaseTables holds the fully parsed tables of one or more releases in
// load order. This is the unit the compiled-release cache stores.
type ReleaseTables struct {
	Concepts []Concept `json:"concepts"`
	Edges    []Edge    `json:"edges"`
}
