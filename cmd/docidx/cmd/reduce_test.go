package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceCmd_RejectsNonMapReduceIndex(t *testing.T) {
	useTestDataDir(t)

	_, err := runCLI(t, "",
		"create", "plain",
		"--field", "word:not_analyzed",
		"--field", "count:default",
	)
	require.NoError(t, err)

	_, err = runCLI(t, `{"id":"1","word":"cat","count":1}`+"\n", "reduce", "plain")
	assert.Error(t, err)
}

func TestReduceCmd_MergesGroupedWordCountsIntoSummedRecords(t *testing.T) {
	useTestDataDir(t)

	_, err := runCLI(t, "",
		"create", "words",
		"--map-reduce",
		"--field", "word:not_analyzed",
		"--field", "count:default",
	)
	require.NoError(t, err)

	// Two contiguous groups, already partitioned by "word" the way an
	// external map/reduce planner would hand them to the reduce phase.
	input := strings.Join([]string{
		`{"id":"w/1","word":"cat","count":1}`,
		`{"id":"w/2","word":"cat","count":1}`,
		`{"id":"w/3","word":"dog","count":1}`,
	}, "\n") + "\n"

	out, err := runCLI(t, input, "reduce", "words", "--group-field", "word")
	require.NoError(t, err, out)
	assert.Contains(t, out, "reduced 2 group(s)")

	out, err = runCLI(t, "", "query", "words", "--all")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, `"word": "cat"`))
	assert.Equal(t, 1, strings.Count(out, `"word": "dog"`))
	assert.Contains(t, out, `"count": 2`)
	assert.Contains(t, out, `"count": 1`)
}
