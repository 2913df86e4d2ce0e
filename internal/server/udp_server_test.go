package server

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetipAddrFromUDPAddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     *net.UDPAddr
		expectOK bool
		expectIP string
	}{
		{
			name:     "IPv4",
			addr:     &net.UDPAddr{IP: net.ParseIP("192.168.1.1"), Port: 12345},
			expectOK: true,
			expectIP: "192.168.1.1",
		},
		{
			name:     "IPv6",
			addr:     &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 53},
			expectOK: true,
			expectIP: "2001:db8::1",
		},
		{
			name:     "IPv4-mapped IPv6",
			addr:     &net.UDPAddr{IP: net.ParseIP("::ffff:192.168.1.1"), Port: 12345},
			expectOK: true,
			expectIP: "192.168.1.1", // Should be unmapped to IPv4
		},
		{
			name:     "nil address",
			addr:     nil,
			expectOK: false,
		},
		{
			name:     "nil IP in address",
			addr:     &net.UDPAddr{IP: nil, Port: 12345},
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, ok := netipAddrFromUDPAddr(tt.addr)
			assert.Equal(t, tt.expectOK, ok)
			if ok {
				assert.Equal(t, tt.expectIP, ip.String())
			}
		})
	}
}

func TestUDPServer_RunOnConn_StopsOnCancel(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err, "ListenUDP failed")

	s := &UDPServer{WorkersPerSocket: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.RunOnConn(ctx, conn)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err, "RunOnConn returned error")
	case <-time.After(3 * time.Second):
		t.Error("timeout waiting for RunOnConn to finish")
	}
}

func TestUDPServer_Stop_UnblocksReceiveLoop(t *testing.T) {
	s := &UDPServer{}
	conns, err := s.Listen("127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), conns) }()

	require.NoError(t, s.Stop(time.Second))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestUDPServer_Stop_NoConnections(t *testing.T) {
	s := &UDPServer{}
	assert.NoError(t, s.Stop(100*time.Millisecond), "Stop with no connections should not error")
	assert.NoError(t, s.Stop(0), "Stop with zero timeout should not error")
}

func TestUDPServer_HandlePacket_NilHandler(t *testing.T) {
	s := &UDPServer{}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	p := packet{
		bufPtr: bufferPool.Get(),
		n:      12,
		peer:   &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345},
	}

	assert.NotPanics(t, func() { s.handlePacket(context.Background(), conn, p) })
}

func TestUDPServer_Listen_MultipleSocketsSharePort(t *testing.T) {
	s := &UDPServer{Sockets: 3}
	conns, err := s.Listen("127.0.0.1:0")
	if err != nil {
		t.Skipf("SO_REUSEPORT may not be supported: %v", err)
	}
	defer func() { _ = s.Stop(time.Second) }()

	require.Len(t, conns, 3)
	port := conns[0].LocalAddr().(*net.UDPAddr).Port
	for _, c := range conns[1:] {
		assert.Equal(t, port, c.LocalAddr().(*net.UDPAddr).Port)
	}
}

func TestListenReusePort(t *testing.T) {
	conn1, err := listenReusePort("127.0.0.1:0")
	require.NoError(t, err, "listenReusePort failed")
	defer conn1.Close()

	port := conn1.LocalAddr().(*net.UDPAddr).Port
	conn2, err := listenReusePort(net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Skipf("SO_REUSEPORT may not be fully supported: %v", err)
	}
	defer conn2.Close()
}

func TestListenReusePort_InvalidAddress(t *testing.T) {
	_, err := listenReusePort("invalid:address::")
	assert.Error(t, err, "expected error for invalid address")
}
