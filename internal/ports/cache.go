package ports

// TableCache persists compiled release tables so the daemon can skip the
// raw-file parse on restart. Entries are keyed by release name and
// validated against a fingerprint of the source files.
type TableCache interface {
	// Load returns the cached tables for a release, or nil with no error
	// when the entry is absent or its fingerprint no longer matches.
	Load(release, fingerprint string) (*ReleaseTables, error)

	// Save stores the tables for a release, replacing any previous entry.
	Save(release, fingerprint string, tables *ReleaseTables) error
}
