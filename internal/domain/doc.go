// Package domain defines the core entity types of the node graph model.
//
// This package contains the entities an editor manipulates: flow charts,
// nodes, ports and connectors, plus the small value objects they carry
// (positions, view transforms, value types).
//
// # Core Types
//
// FlowChart is the root container. It owns an ordered list of nodes and
// connectors and a view transform.
//
// Node is a graph vertex. It owns four ordered port collections: input and
// output flow ports, input and output property ports.
//
// Port is a connection point on a node. A flow port is an untyped
// control-flow endpoint; a property port carries a typed value.
//
// Connector is a directed edge from an output port (StartPort) to an input
// port (EndPort).
//
// # Identity
//
// Every entity is addressed by an ID. Cross-entity references (a connector's
// ports, a port's owner, a node's ports) are IDs resolved through a store,
// never owning pointers. The types in this package hold no references to each
// other.
//
// # Design Principles
//
// - Plain data with no behaviour that needs a store
// - No persistence or event dependencies
// - Sentinel errors shared by every layer above
package domain
