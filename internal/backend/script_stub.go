//go:build !gocv && !gotch

// internal/backend/script_stub.go
package backend

const scriptEnabled = false

func newScript() Backend {
	return notBuilt{kind: Script}
}
