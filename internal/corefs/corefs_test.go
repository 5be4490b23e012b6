package corefs

import (
	"testing"

	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. A clean relative path within root resolves and validates.
// 2. A null byte is rejected as ValidationError.
// 3. A ".." traversal component is rejected as ValidationError.
// 4. An absolute path outside root is rejected as ValidationError.
// 5. Query validation: empty, too long, and valid-trimmed cases.

func TestValidatePath_Clean(t *testing.T) {
	t.Parallel()
	abs, err := ValidatePath("/repo", "src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "/repo/src/main.go", abs)
}

func TestValidatePath_NullByte(t *testing.T) {
	t.Parallel()
	_, err := ValidatePath("/repo", "src/ma\x00in.go")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeValidation))
}

func TestValidatePath_Traversal(t *testing.T) {
	t.Parallel()
	_, err := ValidatePath("/repo", "../etc/passwd")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeValidation))
}

func TestValidatePath_OutsideRoot(t *testing.T) {
	t.Parallel()
	_, err := ValidatePath("/repo", "/etc/passwd")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeValidation))
}

func TestValidateQuery_Empty(t *testing.T) {
	t.Parallel()
	_, err := ValidateQuery("   ")
	require.Error(t, err)
}

func TestValidateQuery_TooLong(t *testing.T) {
	t.Parallel()
	long := make([]byte, MaxQueryLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ValidateQuery(string(long))
	require.Error(t, err)
}

func TestValidateQuery_Trims(t *testing.T) {
	t.Parallel()
	q, err := ValidateQuery("  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", q)
}
