//go:build !branchless_debug

package mask

const debugAssertions = false
