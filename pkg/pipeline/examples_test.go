package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// The documents under examples/ must load and solve in every format.
func TestExampleDocuments(t *testing.T) {
	squares := datatree.New()
	for i, v := range []float64{1, 4, 9, 16} {
		squares.Add(datatree.P(0, i), datatree.Float(v))
	}

	tests := []struct {
		file string
		out  graph.SlotRef
		want *datatree.Tree
	}{
		{"arithmetic.yaml", graph.SlotRef{Component: 5}, datatree.Scalar(datatree.Float(-17.5))},
		{"squares.json", graph.SlotRef{Component: 2}, squares},
		{"vector.toml", graph.SlotRef{Component: 3, Slot: 1}, datatree.Scalar(datatree.Float(5))},
	}

	runner := NewRunner(nil, nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			res, err := runner.Execute(context.Background(), Options{
				Path:    filepath.Join("..", "..", "examples", tt.file),
				Formats: []string{FormatDOT},
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !res.Report.OK() {
				t.Fatalf("report = %+v", res.Report)
			}
			got, err := res.Graph.OutputTree(tt.out)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("output %s =\n%v\nwant\n%v", tt.out, got, tt.want)
			}
			if len(res.Artifacts[FormatDOT]) == 0 {
				t.Error("no DOT artifact")
			}
		})
	}
}
