// Package scheduler provides the interval scheduler driving periodic sync
// cycles.
//
// It is a thin, named-job wrapper around gocron. The scheduler decides only
// WHEN the pipeline runs; what a cycle does (staging refresh, full sync,
// export) is owned by the pipeline feature. Jobs can be rescheduled at
// runtime when the operator changes the interval over the HTTP API.
package scheduler
