package datatree_test

import (
	"fmt"

	"github.com/matzehuels/treeflow/pkg/datatree"
)

func ExampleTree_OneToManyGraft() {
	t := datatree.FromValues(datatree.P(0), datatree.List{
		datatree.Float(1), datatree.Float(2), datatree.Float(3),
	})

	g, err := t.OneToManyGraft()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(g)
	// Output:
	// {0;0}: [1]
	// {0;1}: [2]
	// {0;2}: [3]
}

func ExampleParsePath() {
	p, _ := datatree.ParsePath("{0;2;1}")
	fmt.Println(len(p), p.Parent())
	// Output:
	// 3 {0;2}
}
