package splash

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestTreeBasics(t *testing.T) {
	tree := NewTreeWithDefaults()

	assert.Equal(t, true, tree.CreateBranchAt("/some_object"))
	assert.Equal(t, true, tree.CreateBranchAt("/some_object/some_other_object"))
	assert.Equal(t, false, tree.CreateBranchAt("/some_object/some_other_object"))
	assert.Equal(t, true, tree.RemoveBranchAt("/some_object"))
	assert.Equal(t, false, tree.RemoveBranchAt("/some_object"))

	assert.Equal(t, true, tree.CreateBranchAt("/some_object"))
	assert.Equal(t, true, tree.CreateLeafAt("/some_object/a_leaf"))
	assert.Equal(t, false, tree.CreateLeafAt("/some_object/a_leaf"))

	value := ListValue(1.0, "I've got a flying machine", false)
	assert.Equal(t, true, tree.CreateLeafWithValueAt("/some_object/another_leaf", value))

	leafValue, ok := tree.GetValueForLeafAt("/some_object/another_leaf")
	assert.Equal(t, true, ok)
	assert.Equal(t, true, leafValue.Equal(value))

	value = ListValue("No you don't")
	assert.Equal(t, true, tree.SetValueForLeafAtTime("/some_object/another_leaf", value, time.Now()))
	leafValue, ok = tree.GetValueForLeafAt("/some_object/another_leaf")
	assert.Equal(t, true, ok)
	assert.Equal(t, true, leafValue.Equal(value))

	assert.Equal(t, true, tree.RemoveLeafAt("/some_object/a_leaf"))
	assert.Equal(t, false, tree.RemoveLeafAt("/some_object/a_leaf"))

	tree.CreateBranchAt("/random_branch")
	tree.CreateBranchAt("/randomer_branch")

	assert.Equal(t, false, tree.RenameBranchAt("/random_branch", "randomer_branch"))
	assert.Equal(t, true, tree.RenameBranchAt("/random_branch", "randomerer_branch"))
	assert.Equal(t, true, tree.HasBranchAt("/randomerer_branch"))
	assert.Equal(t, false, tree.HasBranchAt("/random_branch"))

	tree.CreateLeafAt("/randomerer_branch/potatoe")
	tree.CreateLeafAt("/randomerer_branch/salad")

	assert.Equal(t, false, tree.RenameLeafAt("/randomerer_branch/potatoe", "salad"))
	assert.Equal(t, true, tree.RenameLeafAt("/randomerer_branch/potatoe", "burger"))
	assert.Equal(t, true, tree.HasLeafAt("/randomerer_branch/burger"))
	assert.Equal(t, false, tree.HasLeafAt("/randomerer_branch/potatoe"))
}

func TestTreePaths(t *testing.T) {
	tree := NewTreeWithDefaults()

	// intermediate segments must resolve
	assert.Equal(t, false, tree.CreateBranchAt("/missing/child"))
	assert.Equal(t, true, errors.Is(tree.LastError(), ErrPathNotFound))

	// paths are absolute
	assert.Equal(t, false, tree.CreateBranchAt("relative"))
	assert.Equal(t, true, errors.Is(tree.LastError(), ErrPathNotFound))

	// a trailing slash is tolerated
	assert.Equal(t, true, tree.CreateBranchAt("/a/"))
	assert.Equal(t, true, tree.HasBranchAt("/a"))

	// a branch and a leaf may share a name as siblings once both exist,
	// but creation refuses a path occupied by either namespace
	assert.Equal(t, true, tree.CreateLeafAt("/a/twin"))
	assert.Equal(t, false, tree.CreateBranchAt("/a/twin"))
	assert.Equal(t, true, errors.Is(tree.LastError(), ErrNameCollision))

	// renames only collide within their own namespace
	assert.Equal(t, true, tree.CreateBranchAt("/a/other"))
	assert.Equal(t, true, tree.RenameBranchAt("/a/other", "twin"))
	assert.Equal(t, true, tree.HasBranchAt("/a/twin"))
	assert.Equal(t, true, tree.HasLeafAt("/a/twin"))
}

func TestTreeListings(t *testing.T) {
	tree := NewTreeWithDefaults()

	tree.CreateBranchAt("/b")
	tree.CreateBranchAt("/a")
	tree.CreateBranchAt("/a/inner")
	tree.CreateLeafAt("/a/y")
	tree.CreateLeafAt("/a/x")

	assert.Equal(t, []string{"a", "b"}, tree.GetBranchList())
	assert.Equal(t, []string{"inner"}, tree.GetBranchListAt("/a"))
	assert.Equal(t, []string{"x", "y"}, tree.GetLeafListAt("/a"))
	assert.Equal(t, 0, len(tree.GetLeafList()))

	assert.Equal(t, 0, len(tree.GetBranchListAt("/missing")))
	assert.Equal(t, 0, len(tree.GetLeafListAt("/missing")))
}

func TestSeedQueue(t *testing.T) {
	tree := NewTreeWithDefaults()

	tree.AddSeedToQueue(TaskAddBranch, "/some_object", nil)
	tree.AddSeedToQueue(TaskAddLeaf, "/some_object/a_leaf", nil)

	tree.ProcessQueue(false)
	assert.Equal(t, false, tree.HasError())
	assert.Equal(t, false, tree.CreateBranchAt("/some_object"))
	assert.Equal(t, false, tree.CreateLeafAt("/some_object/a_leaf"))

	tree.AddSeedToQueue(TaskRemoveLeaf, "/some_object/a_leaf", nil)
	tree.AddSeedToQueue(TaskRemoveBranch, "/some_object", nil)

	tree.ProcessQueue(false)
	assert.Equal(t, false, tree.HasError())
	assert.Equal(t, true, tree.CreateBranchAt("/some_object"))
	assert.Equal(t, true, tree.CreateLeafAt("/some_object/a_leaf"))

	// drain the journal entries from the direct mutations above
	tree.GetSeedList()

	value := ListValue(1.0, "I've got a flying machine", false)
	tree.AddSeedToQueue(TaskSetLeaf, "/some_object/a_leaf", Values{value})

	tree.ProcessQueue(false)
	assert.Equal(t, false, tree.HasError())
	leafValue, ok := tree.GetValueForLeafAt("/some_object/a_leaf")
	assert.Equal(t, true, ok)
	assert.Equal(t, true, leafValue.Equal(value))

	// replay without propagation must not echo into the journal
	assert.Equal(t, 0, len(tree.GetSeedList()))
}

func TestSeedQueueErrorState(t *testing.T) {
	tree := NewTreeWithDefaults()

	tree.CreateBranchAt("/a")
	tree.AddSeedToQueue(TaskRemoveBranch, "/nope", nil)
	tree.AddSeedToQueue(TaskAddBranch, "/a/b", nil)
	tree.ProcessQueue(false)

	// processing is best effort per seed. The state keeps the last failure
	assert.Equal(t, true, tree.HasError())
	assert.Equal(t, true, tree.HasBranchAt("/a/b"))
	message, ok := tree.GetError()
	assert.Equal(t, true, ok)
	assert.NotEqual(t, "", message)

	// GetError drains
	message, ok = tree.GetError()
	assert.Equal(t, false, ok)
	assert.Equal(t, "", message)

	// a clean drain resets the error state
	tree.CreateBranchAt("/a/b")
	assert.Equal(t, true, tree.HasError())
	tree.AddSeedToQueue(TaskAddBranch, "/a/c", nil)
	tree.ProcessQueue(false)
	assert.Equal(t, false, tree.HasError())
}

func TestCutAndAdd(t *testing.T) {
	maple := NewTreeWithDefaults()
	oak := NewTreeWithDefaults()
	beech := NewTreeWithDefaults()

	oak.CreateBranchAt("/a_branch")
	oak.CreateLeafAt("/a_branch/some_leaf")
	oak.SetValueForLeafAt("/a_branch/some_leaf", ListValue("This is not a pie", 3.14159))
	oak.CreateLeafAt("/a_leaf")
	oak.SetValueForLeafAt("/a_leaf", ListValue("Some oak's leaf"))

	oakSeeds := oak.GetSeedList()
	beech.AddSeedsToQueue(oakSeeds)
	beech.ProcessQueue(false)
	assert.Equal(t, true, oak.Equal(beech))

	branch := oak.CutBranchAt("/a_branch")
	assert.NotEqual(t, branch, nil)
	leaf := oak.CutLeafAt("/a_leaf")
	assert.NotEqual(t, leaf, nil)
	oakSeeds = oak.GetSeedList()

	assert.Equal(t, true, maple.AddBranchAt("/", branch))
	assert.Equal(t, true, maple.AddLeafAt("/", leaf))
	assert.Equal(t, true, maple.Equal(beech))
	assert.Equal(t, false, oak.Equal(beech))

	// the moved subtree keeps its content at the new location
	leafValue, ok := maple.GetValueForLeafAt("/a_branch/some_leaf")
	assert.Equal(t, true, ok)
	assert.Equal(t, true, leafValue.Equal(ListValue("This is not a pie", 3.14159)))

	mapleSeeds := maple.GetSeedList()
	oak.AddSeedsToQueue(mapleSeeds)
	oak.ProcessQueue(false)
	assert.Equal(t, true, maple.Equal(oak))

	// oak's cut seeds are plain removals: replaying them into maple
	// leaves an empty tree
	maple.AddSeedsToQueue(oakSeeds)
	maple.ProcessQueue(false)
	assert.Equal(t, true, maple.Equal(NewTreeWithDefaults()))
}

func TestCutMissing(t *testing.T) {
	tree := NewTreeWithDefaults()

	assert.Equal(t, tree.CutBranchAt("/nope"), nil)
	assert.Equal(t, tree.CutLeafAt("/nope"), nil)
	// a failed cut journals nothing
	assert.Equal(t, 0, len(tree.GetSeedList()))
}

func TestAddBranchCollision(t *testing.T) {
	maple := NewTreeWithDefaults()
	oak := NewTreeWithDefaults()

	maple.CreateBranchAt("/shared")
	oak.CreateBranchAt("/shared")
	branch := oak.CutBranchAt("/shared")
	assert.NotEqual(t, branch, nil)

	assert.Equal(t, false, maple.AddBranchAt("/", branch))
	assert.Equal(t, true, errors.Is(maple.LastError(), ErrNameCollision))
}
