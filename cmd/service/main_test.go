package main

import "testing"

// TestMain_WiringOnly records why the relay entrypoint has no unit tests.
func TestMain_WiringOnly(t *testing.T) {
	t.Skip("main only wires config, cache backend, forwarder and router; each is tested in its own package")
}
