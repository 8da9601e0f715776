package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestSystem(t *testing.T, options ...Option) *ActorSystem {
	sys := NewActorSystem(options...)
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	return sys
}

func actorOf(t *testing.T, sys *ActorSystem, kind string) *ActorRef {
	ref, err := sys.ActorOf(context.Background(), kind, LOCAL, "")
	require.NoError(t, err)
	return ref
}

func underlying[T Actor](t *testing.T, sys *ActorSystem, ref *ActorRef) T {
	a, err := sys.GetActor(ref)
	require.NoError(t, err)
	v, ok := a.(T)
	require.True(t, ok)
	return v
}

func TestSendMessage(t *testing.T) {
	sys := newTestSystem(t)
	ref := actorOf(t, sys, kindStore)
	store := underlying[*StoreActor](t, sys, ref)

	require.NoError(t, ref.Send(&StoreMessage{"Hello World"}, ref))
	assert.Eventually(t, func() bool { return store.Data() == "Hello World" }, waitFor, tick)
}

func TestRespondToMessage(t *testing.T) {
	sys := newTestSystem(t)
	pingRef := actorOf(t, sys, kindPingPong)
	pongRef := actorOf(t, sys, kindPingPong)

	require.NoError(t, pongRef.Send(&PingMessage{}, pingRef))

	ping := underlying[*PingPongActor](t, sys, pingRef)
	pong := underlying[*PingPongActor](t, sys, pongRef)
	assert.Eventually(t, func() bool { return ping.Last() == "Ping" && pong.Last() == "Pong" }, waitFor, tick)
}

func TestNoMessageLost(t *testing.T) {
	sys := newTestSystem(t)
	counterRef := actorOf(t, sys, kindCounter)
	counter := underlying[*CounterActor](t, sys, counterRef)

	for i := 0; i < 200; i++ {
		adder := actorOf(t, sys, kindTrivial)
		require.NoError(t, adder.Send(&Increment{}, counterRef))
	}
	assert.Eventually(t, func() bool { return counter.counter.Load() == 200 }, waitFor, tick)
}

func TestConcurrentIncrementDecrement(t *testing.T) {
	sys := newTestSystem(t)
	counterRef := actorOf(t, sys, kindCounter)
	counter := underlying[*CounterActor](t, sys, counterRef)

	send := func(n int, msg any) {
		for i := 0; i < n; i++ {
			sender, err := sys.ActorOf(context.Background(), kindTrivial, LOCAL, "")
			if err != nil {
				t.Error(err)
				return
			}
			if err := sender.Send(msg, counterRef); err != nil {
				t.Error(err)
			}
		}
	}

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() { defer wg.Done(); send(5500, &Increment{}) }()
	go func() { defer wg.Done(); send(1500, &Decrement{}) }()
	send(2250, &Decrement{})
	wg.Wait()

	assert.Eventually(t, func() bool { return counter.counter.Load() == 1750 }, waitFor, tick)
}

func TestProcessRemainingMessagesAfterStop(t *testing.T) {
	sys := newTestSystem(t)
	ref1 := actorOf(t, sys, kindLongTask)
	ref2 := actorOf(t, sys, kindTrivial)
	lta := underlying[*LongTaskActor](t, sys, ref1)

	for i := 0; i < 3; i++ {
		require.NoError(t, ref2.Send(&TrivialMessage{}, ref1))
	}
	require.NoError(t, sys.Stop(context.Background(), ref1))
	assert.Equal(t, "Done 3 times", lta.Task())

	// 停止后不再接收消息
	err := ref2.Send(&TrivialMessage{}, ref1)
	assert.ErrorIs(t, err, ErrActorNotFound)
	assert.ErrorIs(t, sys.Stop(context.Background(), ref1), ErrActorNotFound)
	assert.False(t, sys.Contains(ref1))
}

func TestProcessRemainingMessagesAfterShutdown(t *testing.T) {
	sys := NewActorSystem()
	ref1 := actorOf(t, sys, kindLongTask)
	ref2 := actorOf(t, sys, kindTrivial)
	lta := underlying[*LongTaskActor](t, sys, ref1)

	for i := 0; i < 3; i++ {
		require.NoError(t, ref2.Send(&TrivialMessage{}, ref1))
	}
	require.NoError(t, sys.Shutdown(context.Background()))
	assert.Equal(t, "Done 3 times", lta.Task())
	assert.True(t, sys.IsStopped())

	assert.ErrorIs(t, ref2.Send(&TrivialMessage{}, ref1), ErrActorNotFound)
	_, err := sys.ActorOf(context.Background(), kindTrivial, LOCAL, "")
	assert.ErrorIs(t, err, ErrSystemStopped)
}

func TestBouncer(t *testing.T) {
	sys := newTestSystem(t)
	oracleRef := actorOf(t, sys, kindBouncer)
	declRef := actorOf(t, sys, kindBouncer)
	oracle := underlying[*BouncerActor](t, sys, oracleRef)
	decl := underlying[*BouncerActor](t, sys, declRef)

	require.NoError(t, declRef.Send(&BounceMessage{"hi"}, oracleRef))
	assert.Eventually(t, func() bool { return decl.Last() == "Hello" }, waitFor, tick)
	assert.Equal(t, "hi", oracle.Last())

	require.NoError(t, declRef.Send(&BounceMessage{"what is the answer?"}, oracleRef))
	assert.Eventually(t, func() bool { return decl.Last() == "42" }, waitFor, tick)
}

func TestBouncerAnswersAfterStop(t *testing.T) {
	sys := newTestSystem(t)
	oracleRef := actorOf(t, sys, kindBouncer)
	declRef := actorOf(t, sys, kindBouncer)
	decl := underlying[*BouncerActor](t, sys, declRef)

	require.NoError(t, declRef.Send(&BounceMessage{"How are you?"}, oracleRef))
	require.NoError(t, sys.Stop(context.Background(), oracleRef))
	assert.Eventually(t, func() bool { return decl.Last() == "Fine." }, waitFor, tick)
}

func TestUnsupportedMessage(t *testing.T) {
	reg := prometheus.NewRegistry()
	sys := newTestSystem(t, WithName("unsupported"), WithRegisterer(reg))
	ref := actorOf(t, sys, kindBouncer)
	bouncer := underlying[*BouncerActor](t, sys, ref)

	ctx := &actorContext{msg: &TrivialMessage{}}
	assert.ErrorIs(t, bouncer.Receive(ctx), ErrUnsupportedMessage)

	// receive loop吞掉错误并继续处理后续消息
	require.NoError(t, ref.Send(&TrivialMessage{}, ref))
	require.NoError(t, ref.Send(&ResponseMessage{"still alive"}, ref))
	assert.Eventually(t, func() bool { return bouncer.Last() == "still alive" }, waitFor, tick)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(sys.metrics.processed) == 2 }, waitFor, tick)
	assert.Equal(t, float64(1), testutil.ToFloat64(sys.metrics.handlerErrors))
	assert.Equal(t, float64(2), testutil.ToFloat64(sys.metrics.enqueued))
}

func TestHandlerPanicKeepsLoop(t *testing.T) {
	sys := newTestSystem(t)
	var calls atomic.Int32
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		if calls.Add(1) == 1 {
			panic("first message")
		}
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, ref.Send(1, ref))
	require.NoError(t, ref.Send(2, ref))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, tick)
}

func TestAtMostOneReceiveLoop(t *testing.T) {
	sys := newTestSystem(t)
	var active, maxActive, handled atomic.Int32
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Microsecond)
		active.Add(-1)
		handled.Add(1)
		return nil
	}))
	require.NoError(t, err)

	wg := sync.WaitGroup{}
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, ref.Send(i, ref))
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return handled.Load() == 1600 }, waitFor, tick)
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestFIFOPerSender(t *testing.T) {
	sys := newTestSystem(t)
	recRef := actorOf(t, sys, kindRecorder)
	rec := underlying[*RecorderActor](t, sys, recRef)

	senders := make([]*ActorRef, 4)
	for i := range senders {
		senders[i] = actorOf(t, sys, kindTrivial)
	}

	wg := sync.WaitGroup{}
	for i, s := range senders {
		wg.Add(1)
		go func(i int, s *ActorRef) {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				assert.NoError(t, s.Send([2]int{i, n}, recRef))
			}
		}(i, s)
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return len(rec.Messages()) == 800 }, waitFor, tick)
	next := make([]int, len(senders))
	for _, m := range rec.Messages() {
		pair := m.([2]int)
		assert.Equal(t, next[pair[0]], pair[1])
		next[pair[0]]++
	}
}

func TestRelayKeepsOriginalSender(t *testing.T) {
	sys := newTestSystem(t)
	recRef := actorOf(t, sys, kindRecorder)
	rec := underlying[*RecorderActor](t, sys, recRef)
	relayRef, err := sys.Spawn(context.Background(), &RelayActor{target: recRef})
	require.NoError(t, err)
	origin := actorOf(t, sys, kindTrivial)

	require.NoError(t, origin.Send("via relay", relayRef))
	assert.Eventually(t, func() bool { return len(rec.Senders()) == 1 }, waitFor, tick)
	assert.Equal(t, origin.Name(), rec.Senders()[0])

	// 直接经Relay副本发送
	relayed := relayRef.Relay(origin)
	assert.Equal(t, origin, relayed.OriginalSender())
	assert.Equal(t, relayRef, relayRef.OriginalSender())
	require.NoError(t, relayed.Send("direct", recRef))
	assert.Eventually(t, func() bool { return len(rec.Senders()) == 2 }, waitFor, tick)
	assert.Equal(t, origin.Name(), rec.Senders()[1])

	// relay链只保留最初的发送者
	other := actorOf(t, sys, kindTrivial)
	assert.Equal(t, origin.Name(), other.Relay(relayed).OriginalSender().Name())
}

func TestSenderNotSharedBetweenMessages(t *testing.T) {
	sys := newTestSystem(t)
	recRef := actorOf(t, sys, kindRecorder)
	rec := underlying[*RecorderActor](t, sys, recRef)

	a := actorOf(t, sys, kindTrivial)
	b := actorOf(t, sys, kindTrivial)
	wg := sync.WaitGroup{}
	for _, s := range []*ActorRef{a, b} {
		wg.Add(1)
		go func(s *ActorRef) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				assert.NoError(t, s.Send(s.Name(), recRef))
			}
		}(s)
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return len(rec.Messages()) == 600 }, waitFor, tick)
	msgs, senders := rec.Messages(), rec.Senders()
	for i := range msgs {
		assert.Equal(t, msgs[i], senders[i])
	}
}

func TestSelfStop(t *testing.T) {
	sys := newTestSystem(t)
	var handled atomic.Int32
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		handled.Add(1)
		if ctx.Message() == "stop" {
			ctx.Stop()
		}
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, ref.Send("stop", ref))
	assert.Eventually(t, func() bool { return !sys.Contains(ref) }, waitFor, tick)
	assert.ErrorIs(t, ref.Send("after", ref), ErrActorNotFound)
	assert.Equal(t, int32(1), handled.Load())
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitFor):
		require.FailNow(t, "timeout")
		return nil
	}
}

func TestStopSelfFromReceive(t *testing.T) {
	sys := newTestSystem(t)
	var handled atomic.Int32
	stopErr := make(chan error, 1)
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		handled.Add(1)
		if ctx.Message() == "stop" {
			stopErr <- ctx.System().Stop(context.Background(), ctx.Self())
		}
		return nil
	}))
	require.NoError(t, err)
	cell, ok := sys.locals.Get(ref.Name())
	require.True(t, ok)

	require.NoError(t, ref.Send("stop", ref))
	assert.NoError(t, waitErr(t, stopErr))
	assert.False(t, sys.Contains(ref))
	assert.ErrorIs(t, ref.Send("after", ref), ErrActorNotFound)

	assert.Eventually(t, func() bool { return cell.getState() == Stopped }, waitFor, tick)
	assert.Equal(t, int32(1), handled.Load())
}

func TestStopSelfWhileDraining(t *testing.T) {
	sys := newTestSystem(t)
	release := make(chan struct{})
	stopErr := make(chan error, 1)
	var handled atomic.Int32
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		switch ctx.Message() {
		case "block":
			<-release
		case "stop":
			stopErr <- ctx.System().Stop(context.Background(), ctx.Self())
		}
		handled.Add(1)
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, ref.Send("block", ref))
	require.NoError(t, ref.Send("stop", ref))
	require.NoError(t, ref.Send("tail", ref))

	outerErr := make(chan error, 1)
	go func() {
		outerErr <- sys.Stop(context.Background(), ref)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.NoError(t, waitErr(t, stopErr))
	err = waitErr(t, outerErr)
	if err != nil {
		// loop上的自身停止可能先完成移除
		assert.ErrorIs(t, err, ErrActorNotFound)
	}
	assert.Eventually(t, func() bool { return handled.Load() == 3 }, waitFor, tick)
	assert.False(t, sys.Contains(ref))
}

func TestShutdownFromReceive(t *testing.T) {
	sys := newTestSystem(t)
	other := actorOf(t, sys, kindTrivial)
	shutdownErr := make(chan error, 1)
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		shutdownErr <- ctx.System().Shutdown(context.Background())
		return nil
	}))
	require.NoError(t, err)
	cell, ok := sys.locals.Get(ref.Name())
	require.True(t, ok)

	require.NoError(t, ref.Send("bye", ref))
	assert.NoError(t, waitErr(t, shutdownErr))
	assert.True(t, sys.IsStopped())
	assert.False(t, sys.Contains(other))
	assert.Eventually(t, func() bool { return cell.getState() == Stopped }, waitFor, tick)
}

// 并发发送时stop: 发送成功的消息都被处理, 其余发送都返回ErrActorNotFound
func TestStopWithConcurrentSenders(t *testing.T) {
	sys := newTestSystem(t)
	var handled, accepted atomic.Int64
	ref, err := sys.Spawn(context.Background(), ActorFunc(func(ctx Context) error {
		handled.Add(1)
		return nil
	}))
	require.NoError(t, err)
	sender := actorOf(t, sys, kindTrivial)

	const senders = 8
	wg := sync.WaitGroup{}
	errs := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5000; j++ {
				if err := sender.Send(j, ref); err != nil {
					errs <- err
					return
				}
				accepted.Add(1)
			}
		}()
	}

	assert.Eventually(t, func() bool { return accepted.Load() > 1000 }, waitFor, time.Millisecond)
	require.NoError(t, sys.Stop(context.Background(), ref))
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrActorNotFound)
	}
	assert.Equal(t, accepted.Load(), handled.Load())
}

type lifecycleActor struct {
	started, stopped atomic.Bool
}

func (a *lifecycleActor) Receive(ctx Context) error { return nil }
func (a *lifecycleActor) PreStart(ctx Context)      { a.started.Store(true) }
func (a *lifecycleActor) PostStop(ctx Context)      { a.stopped.Store(true) }

func TestLifecycleHooks(t *testing.T) {
	sys := newTestSystem(t)
	a := &lifecycleActor{}
	ref, err := sys.SpawnNamed(context.Background(), "lifecycle", a)
	require.NoError(t, err)
	assert.True(t, a.started.Load())

	state, err := sys.State(ref)
	require.NoError(t, err)
	assert.Equal(t, Created, state)

	require.NoError(t, ref.Send("x", ref))
	state, _ = sys.State(ref)
	assert.Equal(t, Running, state)

	require.NoError(t, sys.Stop(context.Background(), ref))
	assert.True(t, a.stopped.Load())
	_, err = sys.State(ref)
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestActorOfErrors(t *testing.T) {
	sys := newTestSystem(t)
	ctx := context.Background()

	for _, kind := range []string{"no-such-kind", kindNil, kindPanic} {
		_, err := sys.ActorOf(ctx, kind, LOCAL, "")
		assert.ErrorIs(t, err, ErrActorNotFound, kind)
		assert.ErrorIs(t, err, ErrConstruction, kind)
	}

	_, err := sys.ActorOf(ctx, kindTrivial, LOCAL, "dup")
	require.NoError(t, err)
	_, err = sys.ActorOf(ctx, kindTrivial, LOCAL, "dup")
	assert.ErrorIs(t, err, ErrActorExists)
}

func TestGeneratedNames(t *testing.T) {
	sys := newTestSystem(t, WithHost("10.0.0.1"))
	ctx := context.Background()

	local, err := sys.ActorOf(ctx, kindTrivial, LOCAL, "")
	require.NoError(t, err)
	assert.NotContains(t, local.Name(), "/")

	remote, err := sys.ActorOf(ctx, kindTrivial, REMOTE, "")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", remote.Host())
	assert.NotEqual(t, local.Name(), remote.Name())
}

func TestUnknownDestination(t *testing.T) {
	sys := newTestSystem(t)
	from := actorOf(t, sys, kindTrivial)
	other := NewActorSystem()
	defer other.Shutdown(context.Background())
	stranger := actorOf(t, other, kindTrivial)

	assert.ErrorIs(t, from.Send("x", stranger), ErrActorNotFound)
	assert.ErrorIs(t, from.Send("x", nil), ErrActorNotFound)
	assert.Nil(t, sys.ActorSelection(stranger.Name()))
}

func TestRemoteWithoutTransport(t *testing.T) {
	sys := newTestSystem(t)
	from := actorOf(t, sys, kindTrivial)
	remote, err := sys.AddRemoteRef("10.0.0.2/abc")
	require.NoError(t, err)

	assert.True(t, sys.ContainsRemote("10.0.0.2/abc"))
	assert.ErrorIs(t, from.Send("x", remote), ErrRemoteUnavailable)

	_, err = sys.AddRemoteRef(from.Name())
	assert.ErrorIs(t, err, ErrActorExists)
	_, err = sys.ActorOf(context.Background(), kindTrivial, LOCAL, "10.0.0.2/abc")
	assert.ErrorIs(t, err, ErrActorExists)
}

type forwardCall struct {
	from, to string
	msg      any
}

type fakeTransport struct {
	lock     sync.Mutex
	bound    map[string]bool
	forwards []forwardCall
	err      error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{bound: map[string]bool{}}
}

func (ft *fakeTransport) Bind(ctx context.Context, name string) error {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	if ft.bound[name] {
		return ErrActorExists
	}
	ft.bound[name] = true
	return nil
}

func (ft *fakeTransport) Unbind(ctx context.Context, name string) error {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	delete(ft.bound, name)
	return nil
}

func (ft *fakeTransport) Forward(ctx context.Context, from string, to string, msg any) error {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	ft.forwards = append(ft.forwards, forwardCall{from, to, msg})
	return ft.err
}

func TestClusterModeRouting(t *testing.T) {
	ft := newFakeTransport()
	sys := newTestSystem(t, WithHost("10.0.0.1"), WithTransport(ft))
	assert.Equal(t, CLUSTER, sys.Mode())

	origin := actorOf(t, sys, kindTrivial)
	relay := actorOf(t, sys, kindTrivial)
	assert.Equal(t, "10.0.0.1", origin.Host())
	assert.True(t, ft.bound[origin.Name()])

	remote, err := sys.AddRemoteRef("10.0.0.2/worker")
	require.NoError(t, err)

	require.NoError(t, relay.Relay(origin).Send("work", remote))
	require.Len(t, ft.forwards, 1)
	assert.Equal(t, forwardCall{origin.Name(), "10.0.0.2/worker", "work"}, ft.forwards[0])

	ft.err = ErrRemoteUnavailable
	assert.ErrorIs(t, origin.Send("work", remote), ErrRemoteUnavailable)

	require.NoError(t, sys.Stop(context.Background(), origin))
	assert.False(t, ft.bound[origin.Name()])
}

func TestDeliver(t *testing.T) {
	sys := newTestSystem(t, WithTransport(newFakeTransport()))
	recRef := actorOf(t, sys, kindRecorder)
	rec := underlying[*RecorderActor](t, sys, recRef)

	require.NoError(t, sys.Deliver(context.Background(), "10.0.0.9/sender", recRef.Name(), "remote hello"))
	assert.Eventually(t, func() bool { return len(rec.Senders()) == 1 }, waitFor, tick)
	assert.Equal(t, "10.0.0.9/sender", rec.Senders()[0])

	err := sys.Deliver(context.Background(), "", "missing", "x")
	assert.True(t, errors.Is(err, ErrActorNotFound))
}
