package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Zereker/stomp"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// echo answers CONNECT with CONNECTED and every SEND with a MESSAGE to the
// same destination carrying the same body.
func echo(c *stomp.Conn, f *stomp.Frame) error {
	switch f.Command {
	case stomp.CmdConnect, stomp.CmdStomp:
		return c.Write(stomp.NewMessage(stomp.CmdConnected, nil,
			stomp.HdrVersion, "1.2",
			stomp.HdrSession, c.ID(),
			stomp.HdrHeartBeat, "0,0"))

	case stomp.CmdSend:
		// The queued message outlives this call, so the body is copied.
		body, err := io.ReadAll(f.Body)
		if err != nil {
			return err
		}
		dest, _ := f.Header.Get(stomp.HdrDestination)
		msg := stomp.NewMessage(stomp.CmdMessage, body,
			stomp.HdrDestination, dest,
			stomp.HdrMessageID, uuid.New().String(),
			stomp.HdrSubscription, "0")
		if ct, ok := f.Header.Get(stomp.HdrContentType); ok {
			msg.Header.Add(stomp.HdrContentType, ct)
		}
		return c.WriteTimeout(msg, time.Second)

	case stomp.CmdDisconnect:
		if receipt, ok := f.Header.Get(stomp.HdrReceipt); ok {
			return c.WriteBlocking(context.Background(),
				stomp.NewMessage(stomp.CmdReceipt, nil, stomp.HdrReceiptID, receipt))
		}
	}

	slog.Debug("frame ignored", "conn_id", c.ID(), "frame", f.String())
	return nil
}

func main() {
	addr, err := net.ResolveTCPAddr("tcp", getEnv("STOMP_ADDR", "127.0.0.1:61613"))
	if err != nil {
		panic(err)
	}

	server, err := stomp.New(addr, stomp.ServerConnOptions(
		stomp.IdleTimeoutOption(time.Minute),
		stomp.BufferSizeOption(16),
	))
	if err != nil {
		slog.Error("failed to create server", "error", err)
		return
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down server...")
		cancel()
	}()

	slog.Info("server start", "addr", addr.String())
	if err := server.Serve(ctx, stomp.HandlerFunc(echo)); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
	}
}
