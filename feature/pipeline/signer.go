package pipeline

import (
	"fmt"

	"github.com/DARKSNOUT/ETL-Pipeline/core/utils"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"github.com/spaolacci/murmur3"
)

// sep delimits column values inside the hashed byte stream so adjacent
// values cannot shift content between columns ("ab","c" vs "a","bc").
const sep = 0x1f

// Signer computes the content signature of a source row.
//
// The signature is deterministic: values are type-normalized (see
// utils.Canonical) and hashed in the fixed schema column order, never in map
// iteration order, so an unchanged row signs identically across runs. The
// digest is 64-bit murmur3; not cryptographic, but accidental collisions are
// negligible at the expected volume of a few million rows.
type Signer struct {
	columns []string
}

// NewSigner creates a signer over the given schema-ordered column list.
func NewSigner(columns []string) *Signer {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Signer{columns: cols}
}

// Sign hashes the row's column values. Columns absent from the row hash as
// NULL. An unsupported value type yields ErrRowSign.
func (s *Signer) Sign(row models.SourceRow) (int64, error) {
	h := murmur3.New64()

	for _, col := range s.columns {
		val, err := utils.Canonical(row[col])
		if err != nil {
			return 0, fmt.Errorf("%w: column %s: %v", ErrRowSign, col, err)
		}
		// hash.Hash.Write never returns an error.
		_, _ = h.Write([]byte(val))
		_, _ = h.Write([]byte{sep})
	}

	return int64(h.Sum64()), nil
}
