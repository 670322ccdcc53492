// Package statsview charts the emulator's Go runtime (heap, goroutines, GC
// pauses) in a browser while a session runs. The charts are only compiled
// in with the statsview build tag:
//
//	go build -tags statsview ./cmd/gogb
//
// and are then served at http://<addr>/debug/statsview next to the pprof
// endpoints. Without the tag Start returns ErrUnavailable.
package statsview
