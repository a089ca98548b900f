// Package service implements the host-facing document operations of
// nodegraph.
//
// DocumentService owns the current graph store and coordinates between the
// store, the document codecs and the repository layer.
//
// # Files
//
// Serialize writes the store to a path. The codec is chosen from the file
// extension (.xml, .yaml, .yml, .json, .ngb) with the configured format as
// fallback, and the file is replaced atomically through a temp file.
// Deserialize and Reload build a fresh store from a file and swap it in only
// when the load succeeds.
//
// # Repository
//
// SaveToRepository, LoadFromRepository, ListDocuments and DeleteDocument
// work on named documents in a repository.Repository.
//
// # Event System
//
// When an EventBus is configured, every store the service creates publishes
// its notifications to it, and the service adds document events for saves,
// loads, reloads and deletes.
package service
