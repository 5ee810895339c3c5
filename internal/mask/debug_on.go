//go:build branchless_debug

package mask

const debugAssertions = true
