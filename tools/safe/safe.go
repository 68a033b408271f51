package safe

import (
	"CipherChat/logger"
)

// Go starts a goroutine that recovers from panics, so one misbehaving
// connection cannot take the whole gateway down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
