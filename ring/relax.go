// relax.go
//
// Portable spin-relax hint. Earlier revisions carried per-arch PAUSE/WFE
// assembly; the portable build declares cpuRelax as an empty function so
// source compiles unchanged on every architecture.

package ring

// cpuRelax is a no-op placeholder for the architecture pause hint.
func cpuRelax() {}
