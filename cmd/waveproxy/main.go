// Command waveproxy is a reference HTTP/1.x proxy that wires the codec
// core (pkg/codec) and its handler-chain runtime (pkg/pipeline) onto raw
// TCP connections.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
