package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/ircloop/lib/irc"
)

type stubClient struct {
	closed atomic.Int32
}

func (s *stubClient) Sender() Sender                { return s }
func (s *stubClient) Stream() Stream                { return s }
func (s *stubClient) ListChannels() []string        { return nil }
func (s *stubClient) Send(irc.Command) error        { return nil }
func (s *stubClient) Next() (ircmsg.Message, error) { return ircmsg.Message{}, ErrWouldBlock }
func (s *stubClient) Close() error {
	s.closed.Add(1)
	return nil
}

func TestFuturePollBeforeResolve(t *testing.T) {
	f := NewFuture()
	c, err := f.Poll()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestFuturePollHandsClientOutOnce(t *testing.T) {
	stub := &stubClient{}
	f := Resolved(stub, nil)

	c, err := f.Poll()
	require.NoError(t, err)
	assert.Same(t, stub, c)

	c, err = f.Poll()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrAbandoned)
}

func TestFutureResolveOnlyOnce(t *testing.T) {
	f := NewFuture()
	boom := errors.New("boom")
	f.Resolve(nil, boom)
	f.Resolve(&stubClient{}, nil)

	_, err := f.Poll()
	assert.ErrorIs(t, err, boom)
}

func TestFutureAbandonClosesLateClient(t *testing.T) {
	f := NewFuture()
	f.Abandon()

	stub := &stubClient{}
	f.Resolve(stub, nil)

	assert.Equal(t, int32(1), stub.closed.Load())
	_, err := f.Poll()
	assert.ErrorIs(t, err, ErrAbandoned)
}

func TestFutureAbandonClosesUntakenClient(t *testing.T) {
	stub := &stubClient{}
	f := Resolved(stub, nil)
	f.Abandon()
	assert.Equal(t, int32(1), stub.closed.Load())
}

func TestFutureAbandonKeepsTakenClient(t *testing.T) {
	stub := &stubClient{}
	f := Resolved(stub, nil)
	_, err := f.Poll()
	require.NoError(t, err)

	f.Abandon()
	assert.Equal(t, int32(0), stub.closed.Load())
}

func TestGoCancelsContextOnAbandon(t *testing.T) {
	started := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (Client, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	f.Abandon()

	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connect goroutine did not observe cancellation")
	}
	_, err := f.Poll()
	assert.ErrorIs(t, err, ErrAbandoned)
}
