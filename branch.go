package splash

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/exp/maps"
)

// Branch is a structural node. Child branches and child leaves live in
// distinct namespaces: a branch and a leaf may share a name as siblings.
type Branch struct {
	name     string
	branches map[string]*Branch
	leaves   map[string]*Leaf
}

func NewBranch(name string) *Branch {
	return &Branch{
		name:     name,
		branches: map[string]*Branch{},
		leaves:   map[string]*Leaf{},
	}
}

func (self *Branch) Name() string {
	return self.name
}

func (self *Branch) BranchNames() []string {
	names := maps.Keys(self.branches)
	slices.Sort(names)
	return names
}

func (self *Branch) LeafNames() []string {
	names := maps.Keys(self.leaves)
	slices.Sort(names)
	return names
}

func (self *Branch) hasBranch(name string) bool {
	_, ok := self.branches[name]
	return ok
}

func (self *Branch) hasLeaf(name string) bool {
	_, ok := self.leaves[name]
	return ok
}

func (self *Branch) addBranch(branch *Branch) bool {
	if self.hasBranch(branch.name) {
		return false
	}
	self.branches[branch.name] = branch
	return true
}

func (self *Branch) addLeaf(leaf *Leaf) bool {
	if self.hasLeaf(leaf.name) {
		return false
	}
	self.leaves[leaf.name] = leaf
	return true
}

// removeBranch detaches the named child and transfers ownership to the caller
func (self *Branch) removeBranch(name string) *Branch {
	branch, ok := self.branches[name]
	if !ok {
		return nil
	}
	delete(self.branches, name)
	return branch
}

func (self *Branch) removeLeaf(name string) *Leaf {
	leaf, ok := self.leaves[name]
	if !ok {
		return nil
	}
	delete(self.leaves, name)
	return leaf
}

// Equal compares both namespaces recursively.
// Leaf timestamps are excluded.
func (self *Branch) Equal(other *Branch) bool {
	if other == nil {
		return false
	}
	if len(self.branches) != len(other.branches) {
		return false
	}
	if len(self.leaves) != len(other.leaves) {
		return false
	}
	for name, branch := range self.branches {
		otherBranch, ok := other.branches[name]
		if !ok || !branch.Equal(otherBranch) {
			return false
		}
	}
	for name, leaf := range self.leaves {
		otherLeaf, ok := other.leaves[name]
		if !ok || !leaf.Equal(otherLeaf) {
			return false
		}
	}
	return true
}

// subtree <-> value encoding, used by AddSubtree seeds so that a peer can
// reconstruct a spliced subtree it never saw cut

const (
	subtreeBranchesName = "branches"
	subtreeLeavesName   = "leaves"
)

func (self *Branch) encode() Value {
	branchEntries := Values{}
	for _, name := range self.BranchNames() {
		branchEntries = append(branchEntries, NamedValue(name, self.branches[name].encode()))
	}
	leafEntries := Values{}
	for _, name := range self.LeafNames() {
		leaf := self.leaves[name]
		leafEntries = append(leafEntries, NamedValue(name, ValuesValue(Values{
			leaf.value,
			IntegerValue(leaf.timestamp.UnixNano()),
		})))
	}
	return ValuesValue(Values{
		NamedValue(subtreeBranchesName, ValuesValue(branchEntries)),
		NamedValue(subtreeLeavesName, ValuesValue(leafEntries)),
	})
}

func decodeSubtree(name string, contents Value) (*Branch, error) {
	if contents.Type() != ValueTypeValues {
		return nil, fmt.Errorf("Malformed subtree: contents must be a sequence, got %s", contents.Type())
	}
	branch := NewBranch(name)
	for _, entry := range contents.valuesData {
		switch entry.Name() {
		case subtreeBranchesName:
			if entry.Type() != ValueTypeValues {
				return nil, fmt.Errorf("Malformed subtree: branches must be a sequence, got %s", entry.Type())
			}
			for _, branchEntry := range entry.valuesData {
				if !branchEntry.Named() {
					return nil, fmt.Errorf("Malformed subtree: unnamed branch entry")
				}
				childBranch, err := decodeSubtree(branchEntry.Name(), branchEntry)
				if err != nil {
					return nil, err
				}
				if !branch.addBranch(childBranch) {
					return nil, fmt.Errorf("Malformed subtree: duplicate branch %s", branchEntry.Name())
				}
			}
		case subtreeLeavesName:
			if entry.Type() != ValueTypeValues {
				return nil, fmt.Errorf("Malformed subtree: leaves must be a sequence, got %s", entry.Type())
			}
			for _, leafEntry := range entry.valuesData {
				if !leafEntry.Named() {
					return nil, fmt.Errorf("Malformed subtree: unnamed leaf entry")
				}
				if leafEntry.Type() != ValueTypeValues || leafEntry.Size() != 2 {
					return nil, fmt.Errorf("Malformed subtree: leaf %s must be (value, timestamp)", leafEntry.Name())
				}
				value := leafEntry.valuesData[0]
				timestamp := time.Unix(0, leafEntry.valuesData[1].AsInteger())
				if !branch.addLeaf(newLeaf(leafEntry.Name(), value, timestamp)) {
					return nil, fmt.Errorf("Malformed subtree: duplicate leaf %s", leafEntry.Name())
				}
			}
		default:
			return nil, fmt.Errorf("Malformed subtree: unknown entry %s", entry.Name())
		}
	}
	return branch, nil
}
