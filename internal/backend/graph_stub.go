//go:build noort

// internal/backend/graph_stub.go
package backend

const graphEnabled = false

func newGraph() Backend {
	return notBuilt{kind: Graph}
}
