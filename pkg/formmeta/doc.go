// Package formmeta provides a typed metadata attachment store for forms
// with pluggable repository and blob storage backends.
//
// It exposes a single Service interface with one operation per metadata
// kind (licenses, public-link flag, source, supporting documents, media,
// map-layer configuration, external exports). Each kind fixes the shape of
// the stored value and its cardinality: single-instance kinds mutate the
// newest matching record on every write, multi-instance kinds append.
// Implementations of repositories (memory, Postgres) and blob stores
// (memory, filesystem, S3) are provided under subpackages.
//
// Uniqueness Caveat
//
// The upsert path is check-then-act against the repository, so concurrent
// writers can momentarily create duplicate (form, kind, value) records.
// Reads resolve the ambiguity by treating the record with the highest id as
// authoritative; the Postgres repository additionally carries a unique
// index so a concurrent loser gets ErrDuplicateMetaData instead of writing
// residue.
package formmeta
