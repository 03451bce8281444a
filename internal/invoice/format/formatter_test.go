package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		template string
		seq      int64
		want     string
	}{
		{DefaultInvoiceNumberTemplate, 1, "INV-2026-00001"},
		{DefaultInvoiceNumberTemplate, 123456, "INV-2026-123456"},
		{"F{YY}{MM}{DD}/{SEQ}", 42, "F260207/42"},
		{"{YYYY}-{SEQ3}", 7, "2026-007"},
	}
	for _, tc := range cases {
		got, err := FormatInvoiceNumber(tc.template, issued, tc.seq)
		require.NoError(t, err, tc.template)
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	issued := time.Now()

	_, err := FormatInvoiceNumber("", issued, 1)
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = FormatInvoiceNumber("INV-{NOPE}", issued, 1)
	assert.ErrorIs(t, err, ErrUnresolvedToken)
}
