package splash

import (
	"time"
)

type LeafCallbackFunction func(value Value, timestamp time.Time)

// Leaf is a named value node. It is owned exclusively by its parent branch
// (or by the caller after a cut) and is mutated only through its tree.
type Leaf struct {
	name      string
	value     Value
	timestamp time.Time

	// invoked in registration order
	callbackIds []CallbackId
	callbacks   map[CallbackId]LeafCallbackFunction
}

func NewLeaf(name string, value Value) *Leaf {
	return newLeaf(name, value, time.Now())
}

func newLeaf(name string, value Value, timestamp time.Time) *Leaf {
	return &Leaf{
		name:        name,
		value:       value,
		timestamp:   timestamp,
		callbackIds: []CallbackId{},
		callbacks:   map[CallbackId]LeafCallbackFunction{},
	}
}

func (self *Leaf) Name() string {
	return self.name
}

func (self *Leaf) Get() (Value, time.Time) {
	return self.value, self.timestamp
}

// AddCallback registers a handler invoked synchronously on every accepted
// value change. The handler must not block.
func (self *Leaf) AddCallback(callback LeafCallbackFunction) CallbackId {
	callbackId := NewCallbackId()
	self.callbackIds = append(self.callbackIds, callbackId)
	self.callbacks[callbackId] = callback
	return callbackId
}

func (self *Leaf) RemoveCallback(callbackId CallbackId) bool {
	if _, ok := self.callbacks[callbackId]; !ok {
		return false
	}
	delete(self.callbacks, callbackId)
	for i, id := range self.callbackIds {
		if id == callbackId {
			self.callbackIds = append(self.callbackIds[:i], self.callbackIds[i+1:]...)
			break
		}
	}
	return true
}

// timestamps are replication metadata and excluded from equality
func (self *Leaf) Equal(other *Leaf) bool {
	if other == nil {
		return false
	}
	return self.name == other.name && self.value.Equal(other.value)
}

func (self *Leaf) set(value Value, timestamp time.Time) {
	self.value = value
	self.timestamp = timestamp
	for _, callbackId := range self.callbackIds {
		callback := self.callbacks[callbackId]
		HandleError(func() {
			callback(value, timestamp)
		})
	}
}
