// Package repository defines the storage interface for node graph documents.
//
// A document is the element tree produced by serializing a graph store. The
// repository keeps documents by name, together with a few counts so they can
// be listed without decoding them. The implementation lives in the sqlite
// subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation stores each document as a single BLOB encoded
// with the binary codec (msgpack, zstd compressed). The schema is created on
// startup and a small metadata table records the last save.
package repository
