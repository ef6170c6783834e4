package splash

import (
	"fmt"

	"github.com/golang/glog"
)

// Logging convention in the `splash` package:
// Info:
//     essential events for abnormal behavior. This level should be silent on
//     normal operation. this includes:
//     - seeds rejected while draining the queue (stale updates, structural
//       conflicts from duplicate or reordered delivery)
//     - panics recovered from leaf callbacks
// V(2):
//     key events for trace debugging
//     this includes:
//     - per-seed apply and journal events, tagged with the tree name so
//       multiple instances in one process can be filtered apart

type LogFunction func(format string, a ...any)

func LogFn(tag string) LogFunction {
	return func(format string, a ...any) {
		m := fmt.Sprintf(format, a...)
		glog.Infof("[%s]%s", tag, m)
	}
}

func SubLogFn(log LogFunction, tag string) LogFunction {
	return func(format string, a ...any) {
		m := fmt.Sprintf(format, a...)
		log("[%s]%s", tag, m)
	}
}
