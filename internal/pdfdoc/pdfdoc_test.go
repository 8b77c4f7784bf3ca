package pdfdoc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-bundler/internal/testutil"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(testutil.PDF(t, "hello")))
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]byte("not a pdf at all")))
}

func TestMergeAndCount(t *testing.T) {
	a := testutil.PDF(t, "a1", "a2")
	b := testutil.PDF(t, "b1")

	var out bytes.Buffer
	require.NoError(t, Merge(&out, a, b))

	n, err := PageCount(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
