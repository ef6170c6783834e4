package splash

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
)

type TreeSettings struct {
	// initial capacity of the outgoing journal and the incoming queue
	JournalCapacity int
	QueueCapacity   int
	// log seeds rejected during a queue drain at Info
	LogRejectedSeeds bool
}

func DefaultTreeSettings() *TreeSettings {
	return &TreeSettings{
		JournalCapacity:  32,
		QueueCapacity:    32,
		LogRejectedSeeds: true,
	}
}

// Tree is a replicated hierarchical store of named branches and leaves.
//
// Every successful local mutation is applied immediately and journaled as a
// seed. A collaborator drains the journal with `GetSeedList` and ships it to
// peers; a peer ingests with `AddSeedsToQueue` and replays with
// `ProcessQueue`. Two trees that receive the same eventual seed set converge
// to equal trees regardless of delivery order variance, with set-leaf
// conflicts resolved last-writer-wins on timestamp.
//
// The journal and the queue are safe for concurrent access, so a link layer
// can feed and drain them from its own goroutine. The node graph itself is
// not internally synchronized: mutations and queries assume exclusive access
// per call, which the owner must guarantee.
type Tree struct {
	settings *TreeSettings

	name string
	root *Branch

	stateLock sync.Mutex
	// outgoing journal, drained by GetSeedList
	updates []*Seed
	// incoming seeds, drained by ProcessQueue
	seedQueue []*Seed

	lastErr error
}

func NewTreeWithDefaults() *Tree {
	return NewTree(DefaultTreeSettings())
}

func NewTree(settings *TreeSettings) *Tree {
	return &Tree{
		settings:  settings,
		root:      NewBranch(""),
		updates:   make([]*Seed, 0, settings.JournalCapacity),
		seedQueue: make([]*Seed, 0, settings.QueueCapacity),
	}
}

// the name is log attribution only. It is not replicated and is excluded
// from equality.
func (self *Tree) SetName(name string) {
	self.name = name
}

func (self *Tree) Name() string {
	return self.name
}

// Equal reports whether both trees have isomorphic branch/leaf graphs with
// equal leaf values. Timestamps and tree names are excluded.
func (self *Tree) Equal(other *Tree) bool {
	if other == nil {
		return false
	}
	return self.root.Equal(other.root)
}

// error state

func (self *Tree) HasError() bool {
	return self.lastErr != nil
}

// GetError returns the pending error message and clears it.
func (self *Tree) GetError() (string, bool) {
	if self.lastErr == nil {
		return "", false
	}
	message := self.lastErr.Error()
	self.lastErr = nil
	return message, true
}

// LastError peeks at the pending error without clearing it.
// Use errors.Is with the conflict sentinels to classify it.
func (self *Tree) LastError() error {
	return self.lastErr
}

func (self *Tree) recordError(err error) bool {
	self.lastErr = err
	glog.V(2).Infof("[%s]%s\n", self.logTag(), err)
	return false
}

func (self *Tree) logTag() string {
	if self.name == "" {
		return "tree"
	}
	return "tree:" + self.name
}

// structural mutations

func (self *Tree) CreateBranchAt(path string) bool {
	if err := self.applyAddBranch(path); err != nil {
		return self.recordError(err)
	}
	self.journal(NewSeed(TaskAddBranch, path, nil))
	return true
}

func (self *Tree) CreateLeafAt(path string) bool {
	return self.CreateLeafWithValueAt(path, Value{})
}

func (self *Tree) CreateLeafWithValueAt(path string, value Value) bool {
	timestamp := time.Now()
	if err := self.applyAddLeaf(path, value, timestamp); err != nil {
		return self.recordError(err)
	}
	self.journal(&Seed{
		Task:      TaskAddLeaf,
		Path:      path,
		Args:      Values{value},
		Timestamp: timestamp,
	})
	return true
}

func (self *Tree) RemoveBranchAt(path string) bool {
	if err := self.applyRemoveBranch(path); err != nil {
		return self.recordError(err)
	}
	self.journal(NewSeed(TaskRemoveBranch, path, nil))
	return true
}

func (self *Tree) RemoveLeafAt(path string) bool {
	if err := self.applyRemoveLeaf(path); err != nil {
		return self.recordError(err)
	}
	self.journal(NewSeed(TaskRemoveLeaf, path, nil))
	return true
}

func (self *Tree) RenameBranchAt(path string, newName string) bool {
	if err := self.applyRenameBranch(path, newName); err != nil {
		return self.recordError(err)
	}
	self.journal(NewSeed(TaskRenameBranch, path, Values{StringValue(newName)}))
	return true
}

func (self *Tree) RenameLeafAt(path string, newName string) bool {
	if err := self.applyRenameLeaf(path, newName); err != nil {
		return self.recordError(err)
	}
	self.journal(NewSeed(TaskRenameLeaf, path, Values{StringValue(newName)}))
	return true
}

// CutBranchAt detaches the subtree at `path` and transfers ownership to the
// caller. Returns nil if the path does not name a branch. Peers see the cut
// as a plain removal.
func (self *Tree) CutBranchAt(path string) *Branch {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return nil
	}
	branch := parent.removeBranch(name)
	if branch == nil {
		return nil
	}
	self.journal(NewSeed(TaskRemoveBranch, path, nil))
	return branch
}

func (self *Tree) CutLeafAt(path string) *Leaf {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return nil
	}
	leaf := parent.removeLeaf(name)
	if leaf == nil {
		return nil
	}
	self.journal(NewSeed(TaskRemoveLeaf, path, nil))
	return leaf
}

// AddBranchAt splices a previously cut subtree under `parentPath`, taking
// ownership. The journaled seed carries the full subtree contents so a peer
// can reconstruct it without having seen the cut.
func (self *Tree) AddBranchAt(parentPath string, branch *Branch) bool {
	if branch == nil {
		return self.recordError(fmt.Errorf("%w: nil branch", ErrNotFound))
	}
	parent := self.branchAt(parentPath)
	if parent == nil {
		return self.recordError(fmt.Errorf("%w: %s", ErrPathNotFound, parentPath))
	}
	if !parent.addBranch(branch) {
		return self.recordError(fmt.Errorf("%w: branch %s already exists under %s", ErrNameCollision, branch.name, parentPath))
	}
	self.journal(NewSeed(TaskAddSubtree, joinPath(parentPath, branch.name), Values{branch.encode()}))
	return true
}

func (self *Tree) AddLeafAt(parentPath string, leaf *Leaf) bool {
	if leaf == nil {
		return self.recordError(fmt.Errorf("%w: nil leaf", ErrNotFound))
	}
	parent := self.branchAt(parentPath)
	if parent == nil {
		return self.recordError(fmt.Errorf("%w: %s", ErrPathNotFound, parentPath))
	}
	if !parent.addLeaf(leaf) {
		return self.recordError(fmt.Errorf("%w: leaf %s already exists under %s", ErrNameCollision, leaf.name, parentPath))
	}
	// the leaf's own timestamp rides along so the replica keeps the same
	// last-writer-wins position
	self.journal(&Seed{
		Task:      TaskAddLeaf,
		Path:      joinPath(parentPath, leaf.name),
		Args:      Values{leaf.value},
		Timestamp: leaf.timestamp,
	})
	return true
}

// value mutation and queries

func (self *Tree) SetValueForLeafAt(path string, value Value) bool {
	return self.SetValueForLeafAtTime(path, value, time.Now())
}

func (self *Tree) SetValueForLeafAtTime(path string, value Value, timestamp time.Time) bool {
	if err := self.applySetLeaf(path, value, timestamp); err != nil {
		return self.recordError(err)
	}
	self.journal(&Seed{
		Task:      TaskSetLeaf,
		Path:      path,
		Args:      Values{value},
		Timestamp: timestamp,
	})
	return true
}

func (self *Tree) GetValueForLeafAt(path string) (Value, bool) {
	leaf := self.GetLeafAt(path)
	if leaf == nil {
		return Value{}, false
	}
	value, _ := leaf.Get()
	return value, true
}

func (self *Tree) HasBranchAt(path string) bool {
	return self.branchAt(path) != nil
}

func (self *Tree) HasLeafAt(path string) bool {
	return self.GetLeafAt(path) != nil
}

func (self *Tree) GetBranchAt(path string) *Branch {
	return self.branchAt(path)
}

func (self *Tree) GetLeafAt(path string) *Leaf {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return nil
	}
	return parent.leaves[name]
}

func (self *Tree) GetBranchList() []string {
	return self.GetBranchListAt("/")
}

func (self *Tree) GetBranchListAt(path string) []string {
	branch := self.branchAt(path)
	if branch == nil {
		return nil
	}
	return branch.BranchNames()
}

func (self *Tree) GetLeafList() []string {
	return self.GetLeafListAt("/")
}

func (self *Tree) GetLeafListAt(path string) []string {
	branch := self.branchAt(path)
	if branch == nil {
		return nil
	}
	return branch.LeafNames()
}

// AddCallbackToLeafAt registers a change callback on the leaf at `path`.
func (self *Tree) AddCallbackToLeafAt(path string, callback LeafCallbackFunction) (CallbackId, bool) {
	leaf := self.GetLeafAt(path)
	if leaf == nil {
		return CallbackId{}, false
	}
	return leaf.AddCallback(callback), true
}

func (self *Tree) RemoveCallbackFromLeafAt(path string, callbackId CallbackId) bool {
	leaf := self.GetLeafAt(path)
	if leaf == nil {
		return false
	}
	return leaf.RemoveCallback(callbackId)
}

// replication

// GetSeedList atomically drains and returns the outgoing journal in
// application order.
func (self *Tree) GetSeedList() []*Seed {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	seeds := self.updates
	self.updates = make([]*Seed, 0, self.settings.JournalCapacity)
	return seeds
}

// AddSeedToQueue enqueues a locally constructed one-off command,
// stamped now. It is not applied until ProcessQueue.
func (self *Tree) AddSeedToQueue(task Task, path string, args Values) {
	self.AddSeedsToQueue([]*Seed{NewSeed(task, path, args)})
}

func (self *Tree) AddSeedsToQueue(seeds []*Seed) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.seedQueue = append(self.seedQueue, seeds...)
}

// ProcessQueue drains the incoming queue in FIFO order and applies each seed.
// The error state is reset at the start; a failed seed records the error and
// the drain continues, so after the call the state holds the last failure
// seen. If `propagate` is set, every successfully applied seed is re-journaled
// so a downstream hop can replicate further; leave it unset to avoid echoing
// seeds back toward their origin.
func (self *Tree) ProcessQueue(propagate bool) {
	self.stateLock.Lock()
	seeds := self.seedQueue
	self.seedQueue = make([]*Seed, 0, self.settings.QueueCapacity)
	self.stateLock.Unlock()

	self.lastErr = nil
	for _, seed := range seeds {
		if err := self.applySeed(seed); err != nil {
			self.lastErr = err
			if self.settings.LogRejectedSeeds {
				glog.Infof("[%s]reject %s: %s\n", self.logTag(), seed, err)
			}
			continue
		}
		glog.V(2).Infof("[%s]apply %s\n", self.logTag(), seed)
		if propagate {
			self.journal(seed)
		}
	}
}

func (self *Tree) applySeed(seed *Seed) error {
	switch seed.Task {
	case TaskAddBranch:
		return self.applyAddBranch(seed.Path)
	case TaskAddLeaf:
		value := Value{}
		if 0 < len(seed.Args) {
			value = seed.Args[0]
		}
		return self.applyAddLeaf(seed.Path, value, seed.Timestamp)
	case TaskRemoveBranch:
		return self.applyRemoveBranch(seed.Path)
	case TaskRemoveLeaf:
		return self.applyRemoveLeaf(seed.Path)
	case TaskRenameBranch:
		if len(seed.Args) == 0 {
			return fmt.Errorf("Malformed %s seed: missing new name", seed.Task)
		}
		return self.applyRenameBranch(seed.Path, seed.Args[0].AsString())
	case TaskRenameLeaf:
		if len(seed.Args) == 0 {
			return fmt.Errorf("Malformed %s seed: missing new name", seed.Task)
		}
		return self.applyRenameLeaf(seed.Path, seed.Args[0].AsString())
	case TaskSetLeaf:
		if len(seed.Args) == 0 {
			return fmt.Errorf("Malformed %s seed: missing value", seed.Task)
		}
		return self.applySetLeaf(seed.Path, seed.Args[0], seed.Timestamp)
	case TaskAddSubtree:
		if len(seed.Args) == 0 {
			return fmt.Errorf("Malformed %s seed: missing subtree", seed.Task)
		}
		return self.applyAddSubtree(seed.Path, seed.Args[0])
	default:
		// contract violation, not a replication conflict
		panic(fmt.Errorf("Unknown seed task: %s", seed.Task))
	}
}

// mutation internals. Each applies fully or not at all and is idempotent on
// failure; journaling is the caller's concern.

func (self *Tree) applyAddBranch(path string) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	if parent.hasBranch(name) || parent.hasLeaf(name) {
		return fmt.Errorf("%w: %s already exists", ErrNameCollision, path)
	}
	parent.addBranch(NewBranch(name))
	return nil
}

func (self *Tree) applyAddLeaf(path string, value Value, timestamp time.Time) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	if parent.hasBranch(name) || parent.hasLeaf(name) {
		return fmt.Errorf("%w: %s already exists", ErrNameCollision, path)
	}
	parent.addLeaf(newLeaf(name, value, timestamp))
	return nil
}

func (self *Tree) applyRemoveBranch(path string) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	if parent.removeBranch(name) == nil {
		return fmt.Errorf("%w: no branch at %s", ErrNotFound, path)
	}
	return nil
}

func (self *Tree) applyRemoveLeaf(path string) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	if parent.removeLeaf(name) == nil {
		return fmt.Errorf("%w: no leaf at %s", ErrNotFound, path)
	}
	return nil
}

// renames are atomic identity changes, not remove+add, so children and
// callback registrations survive
func (self *Tree) applyRenameBranch(path string, newName string) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	branch, ok := parent.branches[name]
	if !ok {
		return fmt.Errorf("%w: no branch at %s", ErrNotFound, path)
	}
	if parent.hasBranch(newName) {
		return fmt.Errorf("%w: branch %s already exists under %s", ErrNameCollision, newName, parentPathOf(path))
	}
	delete(parent.branches, name)
	branch.name = newName
	parent.branches[newName] = branch
	return nil
}

func (self *Tree) applyRenameLeaf(path string, newName string) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	leaf, ok := parent.leaves[name]
	if !ok {
		return fmt.Errorf("%w: no leaf at %s", ErrNotFound, path)
	}
	if parent.hasLeaf(newName) {
		return fmt.Errorf("%w: leaf %s already exists under %s", ErrNameCollision, newName, parentPathOf(path))
	}
	delete(parent.leaves, name)
	leaf.name = newName
	parent.leaves[newName] = leaf
	return nil
}

func (self *Tree) applySetLeaf(path string, value Value, timestamp time.Time) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	leaf, ok := parent.leaves[name]
	if !ok {
		return fmt.Errorf("%w: no leaf at %s", ErrNotFound, path)
	}
	// last-writer-wins: only a strictly newer timestamp is accepted. An
	// equal or older one signals potential causal inversion to the caller.
	if !timestamp.After(leaf.timestamp) {
		return fmt.Errorf("%w: %s at %d, current %d", ErrStaleUpdate, path, timestamp.UnixNano(), leaf.timestamp.UnixNano())
	}
	leaf.set(value, timestamp)
	return nil
}

func (self *Tree) applyAddSubtree(path string, contents Value) error {
	parent, name, err := self.parentAndName(path)
	if err != nil {
		return err
	}
	if parent.hasBranch(name) {
		return fmt.Errorf("%w: %s already exists", ErrNameCollision, path)
	}
	branch, err := decodeSubtree(name, contents)
	if err != nil {
		return err
	}
	parent.addBranch(branch)
	return nil
}

func (self *Tree) journal(seed *Seed) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.updates = append(self.updates, seed)
}

// path resolution

func (self *Tree) branchAt(path string) *Branch {
	segments, err := splitPath(path)
	if err != nil {
		return nil
	}
	branch := self.root
	for _, segment := range segments {
		next, ok := branch.branches[segment]
		if !ok {
			return nil
		}
		branch = next
	}
	return branch
}

// parentAndName resolves all but the final segment of `path` and returns the
// parent branch with the final name. The final segment's namespace is the
// caller's concern.
func (self *Tree) parentAndName(path string) (*Branch, string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, "", err
	}
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("%w: the root has no name", ErrPathNotFound)
	}
	branch := self.root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := branch.branches[segment]
		if !ok {
			return nil, "", fmt.Errorf("%w: %s (missing %s)", ErrPathNotFound, path, segment)
		}
		branch = next
	}
	return branch, segments[len(segments)-1], nil
}

func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %s is not absolute", ErrPathNotFound, path)
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}, nil
	}
	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %s has an empty segment", ErrPathNotFound, path)
		}
	}
	return segments, nil
}

func joinPath(parentPath string, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(parentPath, "/") + "/" + name
}

func parentPathOf(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i <= 0 {
		return "/"
	}
	return trimmed[:i]
}
