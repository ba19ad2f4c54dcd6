// Package table models a four-seat scoring table: lobby membership, the
// in-round scoring state, and the in-memory registry that serializes every
// mutation per table.
//
// The package is computation-only. It never logs, never blocks on I/O, and
// reports failures as structured domain errors so transport boundaries can
// map them to stable status codes.
package table
