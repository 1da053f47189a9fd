// Package ontology parses clinical terminology releases into an in-memory
// concept graph and answers name-search and hierarchy queries over it.
//
// A release is a directory of tab-delimited snapshot files: a concept table
// (which concepts exist and are active), a description table (the names of
// each concept), and a relationship table (typed edges between concepts).
// Only the is-a relationship type is kept; it forms the child -> parent
// hierarchy the query engine traverses.
package ontology

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

// Wire-format constants from the terminology distribution.
const (
	// isARelationship is the typeId of the single hierarchical
	// relationship ("is a", child -> parent). All other relationship
	// types are discarded.
	isARelationship = 116680003

	// primaryNameType and synonymNameType are the two description typeId
	// codes mapped to Primary/Alternate. Any other code on an active row
	// is a hard error.
	primaryNameType = 900000000000003001
	synonymNameType = 900000000000013009
)

// descriptionTypeRe captures the trailing parenthetical of a primary name,
// e.g. "Asthma (disorder)" -> "disorder".
var descriptionTypeRe = regexp.MustCompile(`\(([^()]+)\)$`)

// descriptionRow is one active row of the description table.
type descriptionRow struct {
	conceptID int64
	term      string
	typeID    int64
}

// relationshipRow is one active is-a row of the relationship table.
type relationshipRow struct {
	sourceID      int64
	destinationID int64
}

// tsvTable iterates the rows of a tab-delimited file with a header row,
// giving handlers named-column access. Rows whose active column is not "1"
// are skipped before the handler runs.
func forEachActiveRow(path string, columns []string, fn func(get func(col string) string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read header %s: %w", path, err)
		}
		return fmt.Errorf("%s: empty file", path)
	}

	header := strings.Split(scanner.Text(), "\t")
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("%s: missing column %q", path, col)
		}
	}
	activeCol, hasActive := idx["active"]
	if !hasActive {
		return fmt.Errorf("%s: missing column %q", path, "active")
	}

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < len(header) {
			return fmt.Errorf("%s:%d: %d fields, header has %d", path, lineNo, len(fields), len(header))
		}
		if fields[activeCol] != "1" {
			continue
		}
		get := func(col string) string { return fields[idx[col]] }
		if err := fn(get); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}

// parseConceptFile returns the set of active concept ids.
func parseConceptFile(path string) (map[int64]bool, error) {
	active := make(map[int64]bool)
	err := forEachActiveRow(path, []string{"id"}, func(get func(string) string) error {
		id, err := strconv.ParseInt(get("id"), 10, 64)
		if err != nil {
			return fmt.Errorf("concept id: %w", err)
		}
		active[id] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// parseDescriptionFile returns the active description rows in file order.
func parseDescriptionFile(path string) ([]descriptionRow, error) {
	var rows []descriptionRow
	err := forEachActiveRow(path, []string{"conceptId", "term", "typeId"}, func(get func(string) string) error {
		conceptID, err := strconv.ParseInt(get("conceptId"), 10, 64)
		if err != nil {
			return fmt.Errorf("conceptId: %w", err)
		}
		typeID, err := strconv.ParseInt(get("typeId"), 10, 64)
		if err != nil {
			return fmt.Errorf("typeId: %w", err)
		}
		rows = append(rows, descriptionRow{
			conceptID: conceptID,
			term:      get("term"),
			typeID:    typeID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// parseRelationshipFile returns the active is-a rows in file order. Rows of
// any other relationship type are dropped.
func parseRelationshipFile(path string) ([]relationshipRow, error) {
	var rows []relationshipRow
	err := forEachActiveRow(path, []string{"typeId", "sourceId", "destinationId"}, func(get func(string) string) error {
		typeID, err := strconv.ParseInt(get("typeId"), 10, 64)
		if err != nil {
			return fmt.Errorf("typeId: %w", err)
		}
		if typeID != isARelationship {
			return nil
		}
		sourceID, err := strconv.ParseInt(get("sourceId"), 10, 64)
		if err != nil {
			return fmt.Errorf("sourceId: %w", err)
		}
		destinationID, err := strconv.ParseInt(get("destinationId"), 10, 64)
		if err != nil {
			return fmt.Errorf("destinationId: %w", err)
		}
		rows = append(rows, relationshipRow{sourceID: sourceID, destinationID: destinationID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// nameStatus maps a description typeId to Primary/Alternate.
// Unknown codes are a data-integrity failure, never silently mapped.
func nameStatus(typeID int64) (ports.NameStatus, error) {
	switch typeID {
	case primaryNameType:
		return ports.Primary, nil
	case synonymNameType:
		return ports.Alternate, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownNameStatus, typeID)
	}
}

// descriptionType extracts the trailing parenthetical of a primary name.
// Returns "" when the name carries no qualifier.
func descriptionType(name string) string {
	m := descriptionTypeRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return ""
	}
	return m[1]
}
