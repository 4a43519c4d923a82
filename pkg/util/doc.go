// Package util holds small helpers shared by the stub server and the test
// executor.
package util
