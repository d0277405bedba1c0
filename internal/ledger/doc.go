// Package ledger is the library contract and its clients.
//
// Contract is an in-process, append-only record registry standing in for the
// deployed contract. It keeps records in insertion order, accepts concealed
// page counts only with a valid input proof, and accepts each disclosure at
// most once. State can be persisted as a single JSON snapshot.
//
// Reader and Signer are the read-only and signing clients. Writes return a
// pending Tx that confirms after a configurable delay; callers Wait on it.
package ledger
