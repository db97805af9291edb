// Package storage provides the object storage client used to deliver
// exported cache snapshots to downstream consumers.
//
// It wraps the Minio SDK behind a small Client interface so the export
// feature can be tested against mocks (see the mocks subpackage) and so
// delivery stays a one-way boundary: the pipeline core writes exports out,
// nothing is ever read back in.
package storage
