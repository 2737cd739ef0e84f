package client

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/message"
	"github.com/Jashshor/mini-rpc/server"
)

func TestClientCallRoundTrip(t *testing.T) {
	svr := server.New(zap.NewNop())
	svr.Register("add", func(params string) (string, error) {
		return params, nil
	})
	go svr.Serve("tcp", ":18891")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18891", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	result, err := c.Call(context.Background(), "add", `{"a":1,"b":2}`, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if result != `{"a":1,"b":2}` {
		t.Fatalf("expect echoed params, got %s", result)
	}
}

func TestClientCallMethodNotFound(t *testing.T) {
	svr := server.New(zap.NewNop())
	go svr.Serve("tcp", ":18892")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18892", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Call(context.Background(), "missing", "", time.Second)
	if err == nil {
		t.Fatal("expect error for unknown method")
	}
	rpcErr, ok := err.(*message.RPCError)
	if !ok {
		t.Fatalf("expect *message.RPCError, got %T", err)
	}
	if rpcErr.Code != message.MethodNotFound {
		t.Fatalf("expect MethodNotFound, got %s", rpcErr.Code)
	}
}

func TestClientCallTimesOut(t *testing.T) {
	svr := server.New(zap.NewNop())
	block := make(chan struct{})
	svr.Register("slow", func(params string) (string, error) {
		<-block
		return "", nil
	})
	go svr.Serve("tcp", ":18893")
	defer func() {
		close(block)
		svr.Shutdown(time.Second)
	}()
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18893", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Call(context.Background(), "slow", "", 100*time.Millisecond)
	if err == nil {
		t.Fatal("expect timeout error")
	}
	rpcErr, ok := err.(*message.RPCError)
	if !ok || rpcErr.Code != message.TimeoutError {
		t.Fatalf("expect TimeoutError, got %v", err)
	}
}

func TestClientAsyncCall(t *testing.T) {
	svr := server.New(zap.NewNop())
	svr.Register("echo", func(params string) (string, error) {
		return params, nil
	})
	go svr.Serve("tcp", ":18894")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18894", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	done := make(chan *message.Response, 1)
	if _, err := c.AsyncCall("echo", "hi", time.Second, func(r *message.Response) { done <- r }); err != nil {
		t.Fatal(err)
	}

	select {
	case resp := <-done:
		if !resp.Success() || resp.Result != "hi" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("async callback never fired")
	}
}

func TestClientNotifyInvokesServerHandler(t *testing.T) {
	svr := server.New(zap.NewNop())
	called := make(chan struct{}, 1)
	svr.Register("fire", func(params string) (string, error) {
		called <- struct{}{}
		return "", nil
	})
	go svr.Serve("tcp", ":18895")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18895", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Notify("fire", ""); err != nil {
		t.Fatal(err)
	}

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("notification handler was never invoked")
	}
}

func TestClientStatsTracksSuccessErrorAndTimeout(t *testing.T) {
	svr := server.New(zap.NewNop())
	block := make(chan struct{})
	svr.Register("add", func(params string) (string, error) {
		return params, nil
	})
	svr.Register("slow", func(params string) (string, error) {
		<-block
		return "", nil
	})
	go svr.Serve("tcp", ":18897")
	defer func() {
		close(block)
		svr.Shutdown(time.Second)
	}()
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18897", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Call(context.Background(), "add", "1", time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Call(context.Background(), "missing", "", time.Second); err == nil {
		t.Fatal("expect error for unknown method")
	}
	if _, err := c.Call(context.Background(), "slow", "", 100*time.Millisecond); err == nil {
		t.Fatal("expect timeout error")
	}

	stats := c.Stats()
	if stats.TotalCalls != 3 {
		t.Fatalf("expect 3 total calls, got %d", stats.TotalCalls)
	}
	if stats.SuccessCalls != 1 {
		t.Fatalf("expect 1 success call, got %d", stats.SuccessCalls)
	}
	if stats.ErrorCalls != 1 {
		t.Fatalf("expect 1 error call, got %d", stats.ErrorCalls)
	}
	if stats.TimeoutCalls != 1 {
		t.Fatalf("expect 1 timeout call, got %d", stats.TimeoutCalls)
	}
}

func TestClientDisconnectDrainsPendingCalls(t *testing.T) {
	svr := server.New(zap.NewNop())
	hold := make(chan struct{})
	svr.Register("hang", func(params string) (string, error) {
		<-hold
		return "", nil
	})
	go svr.Serve("tcp", ":18896")
	time.Sleep(100 * time.Millisecond)

	c, err := Dial("tcp", ":18896", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), "hang", "", 5*time.Second)
		errCh <- err
	}()

	time.Sleep(100 * time.Millisecond)
	c.Close()
	close(hold)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expect network error after disconnect")
		}
	case <-time.After(time.Second):
		t.Fatal("pending call was never drained")
	}
}
