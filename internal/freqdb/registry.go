package freqdb

import (
	"errors"
	"fmt"
)

// Registry holds one database per query language.
type Registry map[string]*DB

// Source describes a database to open.
type Source struct {
	Path       string
	CorpusSize float64
}

// OpenRegistry opens all databases. Already opened databases are closed
// when one of them fails.
func OpenRegistry(sources map[string]Source) (Registry, error) {
	r := make(Registry, len(sources))
	for lang, src := range sources {
		db, err := Open(src.Path, src.CorpusSize)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("language %s: %w", lang, err)
		}
		r[lang] = db
	}
	return r, nil
}

// Get returns the database of a language.
func (r Registry) Get(lang string) (*DB, error) {
	db, ok := r[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoDatabase, lang)
	}
	return db, nil
}

// Close closes all databases.
func (r Registry) Close() error {
	var errs []error
	for _, db := range r {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
