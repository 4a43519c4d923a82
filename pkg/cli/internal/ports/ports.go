// Package ports checks listen addresses before a server starts.
package ports

import (
	"fmt"
	"net"
	"strconv"
)

// Check returns an error naming the port when it cannot be bound.
func Check(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("port %d is not available: %w", port, err)
	}
	return ln.Close()
}
