package mra

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Summary renders records as a tree: class, then instruction file, then iclass.
func Summary(records []Record) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d records", len(records)))

	byClass := make(map[uint8][]int)
	for i, r := range records {
		id := r.ClassID()
		byClass[id] = append(byClass[id], i)
	}
	for id := uint8(0); id <= InstrNumIDs; id++ {
		idx, ok := byClass[id]
		if !ok {
			continue
		}
		branch := tree.AddBranch(fmt.Sprintf("%s (%d)", IDToClass(id), len(idx)))
		files := make(map[string]treeprint.Tree)
		for _, i := range idx {
			r := records[i]
			fb, ok := files[r.File]
			if !ok {
				fb = branch.AddBranch(r.File)
				files[r.File] = fb
			}
			compiled := ""
			if r.Pattern == nil {
				compiled = " (uncompiled)"
			}
			fb.AddNode(fmt.Sprintf("#%d %s %s%s", i, r.IClass, r.Name, compiled))
		}
	}
	return tree
}
