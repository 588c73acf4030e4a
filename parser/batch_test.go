package parser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParseBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := accessParser(t)
	require.NoError(t, p.WantInteger("TIME.EPOCH:time.epoch", NotNull, intInto("int")))
	require.NoError(t, p.WantText("IP:id.ip", NotNull, textInto("text")))
	require.NoError(t, p.Build())

	var lines []string

	for i := 0; i < 40; i++ {
		if i%4 == 3 {
			lines = append(lines, fmt.Sprintf("-|%02d/Sap/2010:11:27:50 +0200|x", i%28+1))
			continue
		}

		lines = append(lines, fmt.Sprintf("Ucdv38CoEFEAAEnAkM4AAAAB|%02d/Sep/2010:11:27:50 +0200|x", i%28+1))
	}

	results := make([]*visit, len(lines))
	failures := make(map[int]error)

	err := p.ParseBatch(context.Background(), lines, 4, newVisit, func(i int, rec *visit, err error) {
		results[i] = rec
		if err != nil {
			failures[i] = err
		}
	})
	require.NoError(t, err)

	assert.Len(t, failures, 10)

	for i, rec := range results {
		require.NotNil(t, rec, "record %d was not reported", i)

		if i%4 == 3 {
			var failure *DissectionFailure
			require.ErrorAs(t, failures[i], &failure)
			assert.Equal(t, "timestamp", failure.Dissector)

			continue
		}

		assert.Equal(t, "192.168.16.81", rec.values["text/IP:id.ip"])
		assert.Equal(t, int64(1283678870000)-int64(5-(i%28+1))*86400000, rec.values["int/TIME.EPOCH:time.epoch"], "record %d", i)
	}
}

func TestParseBatch_InternalConsistencyAborts(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New[*visit]("LINE")
	require.NoError(t, p.AddDissector(newLiar()))
	require.NoError(t, p.WantText("STRING:a", Always, textInto("text")))
	require.NoError(t, p.Build())

	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "x"
	}

	err := p.ParseBatch(context.Background(), lines, 3, newVisit, func(int, *visit, error) {
		t.Error("no record may be reported when the dissector breaks its contract")
	})

	var ice *InternalConsistencyError
	require.ErrorAs(t, err, &ice)
}

func TestParseBatch_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := accessParser(t)
	require.NoError(t, p.WantText("IP:id.ip", Always, textInto("text")))
	require.NoError(t, p.Build())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ParseBatch(ctx, []string{accessLine, accessLine}, 2, newVisit, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseBatch_NotBuilt(t *testing.T) {
	p := New[*visit]("LINE")
	assert.ErrorIs(t, p.ParseBatch(context.Background(), nil, 1, newVisit, nil), ErrNotBuilt)
}
