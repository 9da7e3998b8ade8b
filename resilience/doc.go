// Package resilience holds the admission control used by the pipeline
// dispatcher.
//
// A Bulkhead bounds the number of operations in flight. In blocking mode
// (MaxWait = WaitForever) it is the admission gate of a streaming stage: the
// next item starts as soon as a running one releases its slot.
//
//	bh := resilience.NewBulkhead(resilience.DefaultBulkheadConfig("resize", 4))
//	if err := bh.Acquire(ctx); err != nil {
//	    return err
//	}
//	go func() {
//	    defer bh.Release()
//	    process(item)
//	}()
package resilience
