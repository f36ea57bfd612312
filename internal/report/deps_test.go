package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/tsmap/internal/graph"
)

func TestWriteDepsCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteDepsCSV(&buf, []graph.ImportEdge{
		{Source: "index.ts", Imports: []string{"libs/a.ts"}},
		{Source: "libs/a.ts"},
	})
	require.NoError(t, err)
	assert.Equal(t, "source,import\nindex.ts,libs/a.ts\nlibs/a.ts,\n", buf.String())
}

func TestWriteDepsCSV_QuotesOddPaths(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDepsCSV(&buf, []graph.ImportEdge{
		{Source: "my dir/a,b.ts", Imports: []string{"c.ts", "d.ts"}},
	}))
	assert.Equal(t, "source,import\n\"my dir/a,b.ts\",c.ts\n\"my dir/a,b.ts\",d.ts\n", buf.String())
}

func sampleGraph() *graph.ImportGraph {
	return graph.BuildImportGraph([]graph.ImportEdge{
		{Source: "index.ts", Imports: []string{"libs/a.ts", "libs/ui/button.tsx"}},
		{Source: "libs/a.ts"},
		{Source: "libs/ui/button.tsx", Imports: []string{"libs/a.ts"}},
	})
}

func TestWriteDepsDiagram_Dir(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDepsDiagram(&buf, sampleGraph(), DiagramDir))

	want := `@startuml
package "libs" {
  package "ui" {
    [libs/ui/button.tsx]
  }
  [libs/a.ts]
}
[index.ts]
[index.ts] --> [libs/a.ts]
[index.ts] --> [libs/ui/button.tsx]
[libs/ui/button.tsx] --> [libs/a.ts]
@enduml
`
	assert.Equal(t, want, buf.String())
}

func TestWriteDepsDiagram_File(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDepsDiagram(&buf, sampleGraph(), DiagramFile))

	want := `@startuml
[index.ts]
[libs/a.ts]
[libs/ui/button.tsx]
[index.ts] --> [libs/a.ts]
[index.ts] --> [libs/ui/button.tsx]
[libs/ui/button.tsx] --> [libs/a.ts]
@enduml
`
	assert.Equal(t, want, buf.String())
}

func TestWriteDepsDiagram_UnknownMode(t *testing.T) {
	t.Parallel()

	err := WriteDepsDiagram(&bytes.Buffer{}, sampleGraph(), "svg")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
