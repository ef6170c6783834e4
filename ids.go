package splash

import (
	"github.com/oklog/ulid/v2"
)

// comparable
type CallbackId [16]byte

func NewCallbackId() CallbackId {
	return CallbackId(ulid.Make())
}

func (self CallbackId) String() string {
	return ulid.ULID(self).String()
}
