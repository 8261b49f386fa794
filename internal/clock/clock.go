package clock

import "time"

// NowFunc returns the current time. Override in tests for determinism;
// every expiry decision funnels through this single read point.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }
