package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbOf(t *testing.T) {
	tests := []struct {
		query string
		want  Verb
		rows  bool
		count bool
	}{
		{"SELECT * FROM users", VerbSelect, true, false},
		{"  \n\tselect 1", VerbSelect, true, false},
		{"SHOW TABLES", VerbShow, true, false},
		{"Insert into t values (1)", VerbInsert, false, true},
		{"UPDATE t SET a = 1", VerbUpdate, false, true},
		{"delete from t", VerbDelete, false, true},
		{"CREATE TABLE t (a int)", "create", false, false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "with", false, false},
		{"", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v := VerbOf(tt.query)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.rows, v.ReturnsRows())
			assert.Equal(t, tt.count, v.AffectsRows())
		})
	}
}
