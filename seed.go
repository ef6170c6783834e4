package splash

import (
	"fmt"
	"time"
)

// Task is the kind of mutation a seed carries.
type Task uint8

const (
	TaskAddBranch Task = iota
	TaskAddLeaf
	TaskRemoveBranch
	TaskRemoveLeaf
	TaskRenameBranch
	TaskRenameLeaf
	TaskSetLeaf
	TaskAddSubtree
)

func (self Task) String() string {
	switch self {
	case TaskAddBranch:
		return "AddBranch"
	case TaskAddLeaf:
		return "AddLeaf"
	case TaskRemoveBranch:
		return "RemoveBranch"
	case TaskRemoveLeaf:
		return "RemoveLeaf"
	case TaskRenameBranch:
		return "RenameBranch"
	case TaskRenameLeaf:
		return "RenameLeaf"
	case TaskSetLeaf:
		return "SetLeaf"
	case TaskAddSubtree:
		return "AddSubtree"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(self))
	}
}

// Seed is a single replicable mutation record. Immutable once journaled.
//
// Argument conventions per task:
//   - AddBranch, RemoveBranch, RemoveLeaf: no args
//   - AddLeaf: optional args[0] is the initial leaf value
//   - RenameBranch, RenameLeaf: args[0] is the new name
//   - SetLeaf: args[0] is the new value
//   - AddSubtree: args[0] is the encoded subtree contents; the path names
//     the subtree root
type Seed struct {
	Task      Task
	Path      string
	Args      Values
	Timestamp time.Time
}

func NewSeed(task Task, path string, args Values) *Seed {
	return &Seed{
		Task:      task,
		Path:      path,
		Args:      args,
		Timestamp: time.Now(),
	}
}

func (self *Seed) String() string {
	return fmt.Sprintf("seed(%s %s @%d)", self.Task, self.Path, self.Timestamp.UnixNano())
}
