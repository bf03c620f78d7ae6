package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/records"
)

func TestBatchRunFields(t *testing.T) {
	run := newBatchRun("reset month", records.CollectionTransactions, fastRetry(), 3)
	ok := func(context.Context) error { return nil }
	require.NoError(t, run.step(context.Background(), ok))

	f := run.fields(owner, "2024-03")
	assert.Equal(t, "reset month", f[log.FieldOperation])
	assert.Equal(t, records.CollectionTransactions, f[log.FieldCollection])
	assert.Equal(t, 1, f[log.FieldCommitted])
	assert.Equal(t, 3, f[log.FieldTotal])
	assert.Equal(t, owner, f[log.FieldOwnerID])
	assert.Equal(t, "2024-03", f[log.FieldMonthKey])

	anon := run.fields("", "")
	assert.NotContains(t, anon, log.FieldOwnerID)
}

func TestBatchRunFailureKinds(t *testing.T) {
	boom := errors.New("boom")
	run := newBatchRun("reset month", records.CollectionTransactions, fastRetry(), 2)

	var pe *core.PersistenceError
	require.ErrorAs(t, run.failure(boom), &pe)

	run.committed = 1
	var pf *core.PartialBatchFailure
	require.ErrorAs(t, run.failure(boom), &pf)
	assert.Equal(t, 1, pf.Committed)
	assert.Equal(t, 2, pf.Total)
}
