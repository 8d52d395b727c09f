package simd

import "golang.org/x/sys/cpu"

// HasAVX2 reports whether the current CPU advertises AVX2 support. The scan
// loops in this package stay pure Go (no assembly backs this module), but a
// wider vector unit still means a larger SWAR chunk size pays off sooner, so
// this flag tunes chunkThreshold instead of gating a separate code path.
var HasAVX2 = cpu.X86.HasAVX2
