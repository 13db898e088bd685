//go:build windows

package tesscrypto

// Memory locking is not wired on Windows; buffers are still zeroed on Destroy.
func mlock(_ []byte) bool { return false }

func munlock(_ []byte) {}
