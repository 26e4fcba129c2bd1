package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBridgeRequest(t *testing.T) {
	w, err := EncodeBridgeRequest(BridgeRequest{Op: BridgeOpWrite, Addr: 0x55, Payload: []byte("S1")})
	require.NoError(t, err)
	assert.Equal(t, []byte{'W', 0x55, 0x00, 0x02, 'S', '1'}, w)

	r, err := EncodeBridgeRequest(BridgeRequest{Op: BridgeOpRead, Addr: 0x55, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, []byte{'R', 0x55, 0x00, 0x04}, r)

	_, err = EncodeBridgeRequest(BridgeRequest{Op: 'X'})
	assert.ErrorIs(t, err, ErrBadBridgeOp)

	_, err = EncodeBridgeRequest(BridgeRequest{Op: BridgeOpWrite, Payload: make([]byte, MaxBridgePayload+1)})
	assert.ErrorIs(t, err, ErrBridgeLength)
}

func TestReadBridgeRequest(t *testing.T) {
	frame, err := EncodeBridgeRequest(BridgeRequest{Op: BridgeOpWrite, Addr: 0x10, Payload: []byte("T1 a.wav")})
	require.NoError(t, err)

	req, err := ReadBridgeRequest(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, BridgeOpWrite, req.Op)
	assert.Equal(t, uint8(0x10), req.Addr)
	assert.Equal(t, []byte("T1 a.wav"), req.Payload)

	_, err = ReadBridgeRequest(bytes.NewReader([]byte{'R', 0x10, 0x01, 0x01}))
	assert.ErrorIs(t, err, ErrBridgeLength)

	_, err = ReadBridgeRequest(bytes.NewReader([]byte{'Q', 0x10, 0x00, 0x00}))
	assert.ErrorIs(t, err, ErrBadBridgeOp)
}

func TestWriteBridgeResponse_DropsDataOnError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBridgeResponse(&buf, BridgeStatusNack, []byte("N500")))
	assert.Equal(t, []byte{BridgeStatusNack}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteBridgeResponse(&buf, BridgeStatusOK, []byte("N500")))
	assert.Equal(t, []byte{0x00, 'N', '5', '0', '0'}, buf.Bytes())
}

// serveBridge 测试用最小桥服务端：把请求转给模拟器
func serveBridge(t *testing.T, c net.Conn, sim *Simulator, status byte) {
	t.Helper()
	go func() {
		defer c.Close()
		for {
			req, err := ReadBridgeRequest(c)
			if err != nil {
				return
			}
			if status != BridgeStatusOK {
				_ = WriteBridgeResponse(c, status, nil)
				continue
			}
			switch req.Op {
			case BridgeOpWrite:
				sim.Handle(req.Payload)
				_ = WriteBridgeResponse(c, BridgeStatusOK, nil)
			case BridgeOpRead:
				reply := sim.Reply()
				data := make([]byte, req.Len)
				copy(data, reply)
				_ = WriteBridgeResponse(c, BridgeStatusOK, data)
			}
		}
	}()
}

// pipeConn 不可重连的桥连接
func pipeConn(c net.Conn) *bridgeConn {
	return &bridgeConn{
		link:      &bridgeLink{rw: c, closer: c, setDeadline: c.SetDeadline},
		ioTimeout: time.Second,
		addr:      0x55,
	}
}

func TestBridgeConn_RoundTripOverPipe(t *testing.T) {
	client, server := net.Pipe()
	sim := NewSimulator()
	serveBridge(t, server, sim, BridgeStatusOK)

	conn := pipeConn(client)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, conn.Write(ctx, []byte("T2 x.wav")))
	require.NoError(t, conn.Write(ctx, []byte("V7")))

	got, err := conn.Read(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("N720"), got)
	assert.Equal(t, [][]byte{[]byte("T2 x.wav"), []byte("V7")}, sim.Frames())
}

func TestBridgeConn_StatusError(t *testing.T) {
	client, server := net.Pipe()
	serveBridge(t, server, NewSimulator(), BridgeStatusNack)

	conn := pipeConn(client)
	defer conn.Close()

	err := conn.Write(context.Background(), []byte("S1"))
	var be *BridgeError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, BridgeOpWrite, be.Op)
	assert.Equal(t, BridgeStatusNack, be.Status)
	assert.Contains(t, be.Error(), "device nack")
}

func TestBridgeConn_Closed(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	conn := pipeConn(client)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Read(context.Background(), 4)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTCPBridge_Open(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sim := NewSimulator()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		serveBridge(t, c, sim, BridgeStatusOK)
	}()

	tr := NewTCPBridge(ln.Addr().String(), time.Second, time.Second)
	conn, err := tr.Open(context.Background(), 0x55)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Write(context.Background(), []byte("V+")))
	assert.Eventually(t, func() bool { return sim.Volume() == 6 }, time.Second, 10*time.Millisecond)
}

// acceptLoop 每个新连接交给 handle(序号, 连接)
func acceptLoop(t *testing.T, handle func(n int, c net.Conn)) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for n := 1; ; n++ {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go handle(n, c)
		}
	}()
	return ln
}

func TestBridgeConn_LateReplyNotReused(t *testing.T) {
	ln := acceptLoop(t, func(n int, c net.Conn) {
		defer c.Close()
		for {
			req, err := ReadBridgeRequest(c)
			if err != nil {
				return
			}
			if req.Op != BridgeOpRead {
				_ = WriteBridgeResponse(c, BridgeStatusOK, nil)
				continue
			}
			if n == 1 {
				// 第一条连接上的应答晚于客户端超时到达
				time.Sleep(150 * time.Millisecond)
				_ = WriteBridgeResponse(c, BridgeStatusOK, []byte("N500"))
				continue
			}
			_ = WriteBridgeResponse(c, BridgeStatusOK, []byte("N370"))
		}
	})

	tr := NewTCPBridge(ln.Addr().String(), time.Second, 50*time.Millisecond)
	conn, err := tr.Open(context.Background(), 0x55)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Read(context.Background(), 4)
	require.Error(t, err)

	// 等迟到应答写出后再发起下一次读
	time.Sleep(200 * time.Millisecond)
	got, err := conn.Read(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("N370"), got)
	assert.Equal(t, 2, conn.(*bridgeConn).dials)
}

func TestBridgeConn_RedialAfterPeerClose(t *testing.T) {
	sim := NewSimulator()
	dropped := make(chan struct{})
	ln := acceptLoop(t, func(n int, c net.Conn) {
		if n == 1 {
			// 服务一次后断开，模拟桥端空闲踢出
			req, err := ReadBridgeRequest(c)
			if err == nil {
				sim.Handle(req.Payload)
				_ = WriteBridgeResponse(c, BridgeStatusOK, nil)
			}
			_ = c.Close()
			close(dropped)
			return
		}
		serveBridge(t, c, sim, BridgeStatusOK)
	})

	tr := NewTCPBridge(ln.Addr().String(), time.Second, time.Second)
	conn, err := tr.Open(context.Background(), 0x55)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, conn.Write(ctx, []byte("T2 x.wav")))
	<-dropped

	require.NoError(t, conn.Write(ctx, []byte("S2")))
	require.NoError(t, conn.Write(ctx, []byte("V7")))
	got, err := conn.Read(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("N700"), got)
	assert.Equal(t, 2, conn.(*bridgeConn).dials)
	assert.Equal(t, [][]byte{[]byte("T2 x.wav"), []byte("S2"), []byte("V7")}, sim.Frames())
}

func TestBridgeConn_PeerGone(t *testing.T) {
	ln := acceptLoop(t, func(n int, c net.Conn) { _ = c.Close() })

	tr := NewTCPBridge(ln.Addr().String(), 200*time.Millisecond, 200*time.Millisecond)
	conn, err := tr.Open(context.Background(), 0x55)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, ln.Close())

	// 旧连接已被对端关闭且无法重拨：快速失败，不挂起
	start := time.Now()
	err = conn.Write(context.Background(), []byte("S1"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	err = conn.Write(context.Background(), []byte("S1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial bridge")
}
