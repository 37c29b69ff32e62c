package proxyconn

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

var DefaultTimeout = 3 * time.Second

// GetDialer returns a dialer honouring ALL_PROXY/NO_PROXY, falling back to a
// direct connection with DefaultTimeout.
func GetDialer() proxy.Dialer {
	return proxy.FromEnvironmentUsing(&net.Dialer{Timeout: DefaultTimeout})
}

func GetConnection(host string, port int) (net.Conn, error) {
	return GetDialer().Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
