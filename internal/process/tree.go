package process

import (
	ps "github.com/shirou/gopsutil/process"
)

// descendants returns the children of pid and all of their
// children, parents before children. Processes that exit while
// the tree is walked are skipped.
func descendants(pid int) []*ps.Process {
	root, err := ps.NewProcess(int32(pid))
	if err != nil {
		return nil
	}

	var tree []*ps.Process

	queue := []*ps.Process{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children, err := parent.Children()
		if err != nil {
			// ErrorNoChildren, or the parent is gone
			continue
		}

		tree = append(tree, children...)
		queue = append(queue, children...)
	}

	return tree
}
