package repository

// Tx is an opaque transaction handle. Repositories accept nil for the
// non-transactional path; the concrete type is infra-defined (pgx.Tx for
// Postgres). Kept deliberately small: the only transactional primitive the
// orchestrator needs is the single-record atomic increment, which each
// repository implements as one statement.
type Tx interface{}
