package safe

import (
	"Linkup/logger"
)

// Go starts a goroutine that recovers from panics so a misbehaving fanout
// or sweep cannot take down the process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}

// Run invokes f inline with the same panic recovery. Used by ticker loops
// so one bad tick does not kill the loop goroutine.
func Run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[safe.Run] panic recovered: %v", r)
		}
	}()
	f()
}
