package ontology

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

// Filename markers identifying the three required files inside a release
// directory. Each marker must match exactly one file.
const (
	conceptMarker      = "_Concept_"
	descriptionMarker  = "_Description_"
	relationshipMarker = "_Relationship_"
)

// ListReleases returns the release names (subdirectory names) under the
// definitions root, sorted for deterministic load order.
func ListReleases(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	var releases []string
	for _, e := range entries {
		// Hidden directories (the .snomap state dir in particular) are
		// not releases.
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			releases = append(releases, e.Name())
		}
	}
	sort.Strings(releases)
	return releases, nil
}

// findReleaseFile walks the release directory for the single .txt file whose
// name contains marker. Zero matches or more than one are both load
// failures.
func findReleaseFile(dir, marker string) (string, error) {
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.Contains(name, marker) && strings.HasSuffix(name, ".txt") {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no %q file under %s", ErrReleaseFileMissing, marker, dir)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("%w: %d %q files under %s", ErrReleaseFileAmbiguous, len(matches), marker, dir)
	}
}

// releaseFiles resolves the three required file paths for a release.
func releaseFiles(root, release string) (concept, description, relationship string, err error) {
	dir := filepath.Join(root, release)
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return "", "", "", fmt.Errorf("%w: %s under %s", ErrReleaseNotFound, release, root)
	}
	if concept, err = findReleaseFile(dir, conceptMarker); err != nil {
		return "", "", "", err
	}
	if description, err = findReleaseFile(dir, descriptionMarker); err != nil {
		return "", "", "", err
	}
	if relationship, err = findReleaseFile(dir, relationshipMarker); err != nil {
		return "", "", "", err
	}
	return concept, description, relationship, nil
}

// LoadRelease parses one release into concept and edge tables.
//
// Concept and description rows are merged by concept id (inner join): a
// concept with no active description rows is dropped, and a description row
// whose concept is inactive or absent is dropped. Name rows keep the file
// order of the description table. The description type qualifier is
// extracted for primary rows only.
func LoadRelease(root, release string) (*ports.ReleaseTables, error) {
	conceptFile, descriptionFile, relationshipFile, err := releaseFiles(root, release)
	if err != nil {
		return nil, err
	}

	activeConcepts, err := parseConceptFile(conceptFile)
	if err != nil {
		return nil, err
	}
	descriptions, err := parseDescriptionFile(descriptionFile)
	if err != nil {
		return nil, err
	}
	relationships, err := parseRelationshipFile(relationshipFile)
	if err != nil {
		return nil, err
	}

	tables := &ports.ReleaseTables{}
	for _, d := range descriptions {
		if !activeConcepts[d.conceptID] {
			continue
		}
		status, err := nameStatus(d.typeID)
		if err != nil {
			return nil, fmt.Errorf("release %s, cui %d: %w", release, d.conceptID, err)
		}
		concept := ports.Concept{
			CUI:     d.conceptID,
			Name:    d.term,
			Status:  status,
			Release: release,
		}
		if status == ports.Primary {
			concept.DescriptionType = descriptionType(d.term)
		}
		tables.Concepts = append(tables.Concepts, concept)
	}

	for _, r := range relationships {
		tables.Edges = append(tables.Edges, ports.Edge{
			SourceCUI:      r.sourceID,
			DestinationCUI: r.destinationID,
			Release:        release,
		})
	}

	return tables, nil
}

// Fingerprint summarizes the identity of a release's source files (path,
// size, mtime) so cached compiled tables can be invalidated when any file
// changes. Content is deliberately not hashed; release files are large and
// replaced wholesale, never edited in place.
func Fingerprint(root, release string) (string, error) {
	conceptFile, descriptionFile, relationshipFile, err := releaseFiles(root, release)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, path := range []string{conceptFile, descriptionFile, relationshipFile} {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
