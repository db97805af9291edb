// Package utils provides small conversion helpers shared across features.
//
// Its main export is Canonical, the type-normalization step the pipeline's
// row signer relies on: database drivers are free to scan the same logical
// value into different Go types across runs, and signatures must not change
// when that happens.
package utils
