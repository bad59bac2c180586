package helpers

import (
	// Go Internal Packages
	"bytes"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStruct(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintStruct(&buf, map[string]int{"unread": 2}))
	assert.Equal(t, "{\n  \"unread\": 2\n}\n", buf.String())

	assert.Error(t, PrintStruct(&buf, make(chan int)))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, []string{"ID", "STATUS"}, [][]string{
		{"tx-1", "COMPLETED"},
		{"tx-100", "PENDING"},
	}))
	assert.Equal(t, "ID      STATUS\ntx-1    COMPLETED\ntx-100  PENDING\n", buf.String())
}
