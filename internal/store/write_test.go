package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/schema"
)

func testRun(direction Direction, input string) Run {
	return Run{
		Direction:  direction,
		SchemaHash: "schema",
		InputHash:  input,
		OutputHash: "output-" + input,
		Elements:   2,
		Quads:      5,
		Assignments: []schema.Assignment{
			{Element: "b1", Kind: schema.KindNode, Rule: "<http://example.org/PersonRule>", Quads: 2},
			{Element: "b2", Kind: schema.KindEdge, Rule: "<http://example.org/RatedRule>", Quads: 3},
		},
	}
}

func TestWriteRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.WriteRun(ctx, testRun(DirectionApply, "input"))
	require.NoError(t, err)

	assert.Equal(t, RunID(DirectionApply, "schema", "input", "output-input"), run.ID)
	assert.Equal(t, int64(1), run.Seq)

	stored, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, stored)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, testRun(DirectionApply, "input"))
	require.NoError(t, err)

	again := testRun(DirectionApply, "input")
	again.Assignments = nil
	second, err := s.WriteRun(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRun_DifferentOutputIsNewRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, testRun(DirectionApply, "input"))
	require.NoError(t, err)

	minted := testRun(DirectionApply, "input")
	minted.OutputHash = "output-with-other-blank-nodes"
	second, err := s.WriteRun(ctx, minted)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "output-with-other-blank-nodes", second.OutputHash)
	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestWriteRun_SeqOrdersRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, input := range []string{"c", "a", "b"} {
		_, err := s.WriteRun(ctx, testRun(DirectionRevert, input))
		require.NoError(t, err)
	}

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, input := range []string{"c", "a", "b"} {
		assert.Equal(t, int64(i+1), runs[i].Seq)
		assert.Equal(t, input, runs[i].InputHash)
		assert.Equal(t, DirectionRevert, runs[i].Direction)
		assert.Nil(t, runs[i].Assignments)
	}
}

func TestReadRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ReadRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRuleUsage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, testRun(DirectionApply, "one"))
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, testRun(DirectionRevert, "two"))
	require.NoError(t, err)

	usage, err := s.RuleUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"<http://example.org/PersonRule>": 2,
		"<http://example.org/RatedRule>":  2,
	}, usage)
}
