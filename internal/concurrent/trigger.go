package concurrent

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Async runs exec in a new go routine and returns once the routine has started.
// A panic in exec is logged instead of crashing the process.
func Async(exec func()) {
	started := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("async execution failed")
			}
		}()
		close(started)
		exec()
	}()
	<-started
}
