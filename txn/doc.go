// Package txn implements a nested-transaction execution engine on top of a
// pluggable connection provider. It guarantees exactly one physical
// transaction per logical call chain: the outermost Execute call owns the
// connection, the commit/rollback decision and the teardown, while nested
// Execute calls on the same context merge into the enclosing transaction.
//
// The active connection and transaction travel implicitly through the
// context handed to the unit of work, so repositories and services compose
// transactionally without threading a transaction handle through every
// signature.
package txn
