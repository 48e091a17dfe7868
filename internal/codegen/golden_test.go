package codegen

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/dankeyy/roc/internal/ir"
	"github.com/dankeyy/roc/internal/testprog"
)

// The text form of selected functions is pinned in testdata. Regenerate with
//
//	go test ./internal/codegen -run TestTextGolden -update
func TestTextGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, f := range []*ir.Func{
		testprog.Add(),
		testprog.AddMain(),
		testprog.Reversed(),
		testprog.Fact(),
	} {
		t.Run(f.Name, func(t *testing.T) {
			fn := compile(t, f)
			require.NotEmpty(t, fn.Code)
			g.Assert(t, f.Name, []byte(fn.Text()))
		})
	}
}
