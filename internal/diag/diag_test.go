package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagSortsByPosition(t *testing.T) {
	var b Bag
	b.Add("b.yaml", 1, 1, "third")
	b.Addf(Loc{Filename: "a.yaml", Line: 4, Col: 2}, "second %d", 2)
	b.AddAt(Loc{Filename: "a.yaml", Line: 4, Col: 1}, "first")

	var buf bytes.Buffer
	Print(&buf, &b)
	want := "a.yaml:4:1: error: first\n" +
		"a.yaml:4:2: error: second 2\n" +
		"b.yaml:1:1: error: third\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, want[:len(want)-1], b.Error())
	assert.Equal(t, "third", b.Items[0].Msg, "Items keeps insertion order")
}

func TestEmptyBag(t *testing.T) {
	var nilBag *Bag
	assert.True(t, nilBag.Empty())
	assert.NoError(t, nilBag.Err())

	var buf bytes.Buffer
	Print(&buf, nilBag)
	assert.Empty(t, buf.String())

	b := &Bag{}
	b.Add("x", 1, 1, "boom")
	require.Error(t, b.Err())
	assert.Equal(t, "x:1:1: error: boom", b.Err().Error())
}
