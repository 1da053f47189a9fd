package ontology

import "errors"

// Load-time and data-integrity errors. All of these indicate that the
// release files violate an assumed invariant; callers must not swallow them.
var (
	// ErrReleaseNotFound reports a release name with no directory under
	// the definitions root.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrReleaseFileMissing reports a release directory with no file
	// matching one of the three required markers.
	ErrReleaseFileMissing = errors.New("release file missing")

	// ErrReleaseFileAmbiguous reports a release directory with more than
	// one file matching a marker.
	ErrReleaseFileAmbiguous = errors.New("release file ambiguous")

	// ErrUnknownNameStatus reports a description row whose type code is
	// neither the primary nor the synonym code.
	ErrUnknownNameStatus = errors.New("unknown name status code")

	// ErrNoPrimaryConcept reports a CUI with zero primary name rows.
	ErrNoPrimaryConcept = errors.New("no primary concept")

	// ErrAmbiguousPrimaryConcept reports a CUI with more than one primary
	// name row.
	ErrAmbiguousPrimaryConcept = errors.New("ambiguous primary concept")

	// ErrConceptNotFound reports a by-name lookup that did not resolve to
	// exactly one CUI.
	ErrConceptNotFound = errors.New("concept not found")
)
