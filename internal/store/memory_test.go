package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternforge/internal/types"
)

func goodSubmission(name string) types.Submission {
	return types.Submission{
		Name:        name,
		Language:    "javascript",
		Description: "adds two numbers",
		Tags:        []string{"math"},
		Code:        "function add(a, b) {\n  return a + b;\n}",
	}
}

func TestMemoryStore_RegisterAccepted(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()

	result, err := s.Register(context.Background(), goodSubmission("add"))
	require.NoError(t, err)

	assert.True(t, result.Registered)
	require.NotNil(t, result.Pattern)
	assert.NotEmpty(t, result.Pattern.ID)
	assert.Equal(t, "add", result.Pattern.Name)
	assert.False(t, result.Pattern.RegisteredAt.IsZero())
	assert.GreaterOrEqual(t, result.Validation.CoherencyScore.Total, 0.5)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_RegisterIdempotentByName(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()
	ctx := context.Background()

	first, err := s.Register(ctx, goodSubmission("add"))
	require.NoError(t, err)
	require.True(t, first.Registered)

	// Same name, different payload: the stored pattern wins.
	dup := goodSubmission("add")
	dup.Code = "function add(a, b) {\n  return b + a;\n}"
	second, err := s.Register(ctx, dup)
	require.NoError(t, err)

	assert.True(t, second.Registered)
	assert.Equal(t, "already registered", second.Reason)
	assert.Equal(t, first.Pattern.ID, second.Pattern.ID)
	assert.Equal(t, 1, s.Len())

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Pattern.Code, all[0].Code)
}

func TestMemoryStore_RejectsBrokenSyntax(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()

	sub := types.Submission{
		Name:     "broken",
		Language: "javascript",
		Code:     "function broken(a { return a; }",
	}
	result, err := s.Register(context.Background(), sub)
	require.NoError(t, err)

	assert.False(t, result.Registered)
	assert.NotEmpty(t, result.Reason)
	assert.NotEmpty(t, result.Validation.Errors)
	assert.Less(t, result.Validation.CoherencyScore.Total, 0.5)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_RejectsUnconditionallyThrowingTest(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()

	sub := goodSubmission("add")
	sub.TestCode = "function testAdd() {\n  throw new Error('always');\n}"
	result, err := s.Register(context.Background(), sub)
	require.NoError(t, err)

	assert.False(t, result.Registered)
	assert.Contains(t, result.Reason, "throws unconditionally")
}

func TestMemoryStore_AcceptsGuardedTest(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()

	sub := goodSubmission("add")
	sub.TestCode = "function testAdd() {\n  if (add(1, 2) !== 3) throw new Error('add failed');\n}"
	result, err := s.Register(context.Background(), sub)
	require.NoError(t, err)

	assert.True(t, result.Registered)
	assert.Equal(t, 1.0, result.Validation.CoherencyScore.Breakdown["tests"])
}

func TestMemoryStore_GetAllInsertionOrder(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		result, err := s.Register(ctx, goodSubmission(name))
		require.NoError(t, err)
		require.True(t, result.Registered)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, all[i].Name)
	}
}

func TestMemoryStore_RejectsEmptySubmission(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()

	result, err := s.Register(context.Background(), types.Submission{Name: "empty"})
	require.NoError(t, err)

	assert.False(t, result.Registered)
	assert.Contains(t, result.Reason, "no code")
}

func TestMemoryStore_GetAllReturnsIsolatedCopies(t *testing.T) {
	s := NewMemoryStore(0.5)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Register(ctx, goodSubmission("add"))
	require.NoError(t, err)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Mutating a returned entry must not reach into the catalog.
	all[0].Tags[0] = "mangled"
	all[0].Coherency.Breakdown["structure"] = 0.0

	again, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "math", again[0].Tags[0])
	assert.Equal(t, 1.0, again[0].Coherency.Breakdown["structure"])
}
