// Package graph is the editing core of the node graph model.
//
// A Store owns the entity registries for flow charts, nodes, ports and
// connectors and is the only way to mutate them. Every mutating operation
// keeps the structural invariants of the model: connectors only join an
// output port to an input port of the same kind on different nodes of the
// same flow chart, single-valued ports never carry more than one connector,
// and no cycle is closed through a node that does not allow it.
//
// # Transactions
//
// Each flow chart has its own history.History. Public operations record
// reversible commands into it. When the caller has not opened a transaction
// with BeginTransaction, each operation is committed as its own transaction.
//
// # Sessions
//
// Interactive gestures span several calls: a connection session
// (BeginConnection, SetOtherConnectionPort, CheckConnectable, EndConnection),
// a rubber-band selection and a node drag. At most one of each kind is active
// per Store. CancelSessions aborts all of them.
//
// # Persistence
//
// SerializeStore and DeserializeStore convert the whole store to and from a
// codec.Element document. Loading is two-phase and atomic: all entities are
// created before any cross-reference is resolved, and a failed load leaves
// the store unchanged.
//
// A Store is not safe for concurrent use.
package graph
