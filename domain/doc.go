// Package domain defines the data structures of the showcase library and the
// persistence contract they are stored through.
//
// It contains the primary models, such as Project, Comment and ActivityEntry,
// and the KVRepository interface that a physical key-value back end has to
// satisfy. The package has no dependencies on the storage technology, keeping
// the namespaced store, the identity manager and the entity store independent
// of whether values live in SQLite or anywhere else.
package domain
