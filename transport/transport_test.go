package transport_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/transport"
)

type ping struct{ n int }

func (ping) Kind() string { return "test.ping" }

func TestMemBus_RegisterDuplicate(t *testing.T) {
	bus := transport.NewMemBus()

	_, err := bus.Register("a")
	require.NoError(t, err)

	mb, err := bus.Register("a")
	assert.Nil(t, mb)
	assert.ErrorIs(t, err, transport.ErrDuplicateNode)
}

func TestMemBus_SendUnknownReceiver(t *testing.T) {
	bus := transport.NewMemBus()
	_, err := bus.Register("a")
	require.NoError(t, err)

	err = bus.Send(transport.Message{From: "a", To: "ghost", Payload: ping{}})
	assert.ErrorIs(t, err, transport.ErrUnknownReceiver)
}

func TestMemBus_PerEdgeSequence(t *testing.T) {
	bus := transport.NewMemBus()
	box, err := bus.Register("b")
	require.NoError(t, err)
	_, err = bus.Register("c")
	require.NoError(t, err)

	// Two edges into b plus an unrelated edge: counters stay independent.
	require.NoError(t, bus.Send(transport.Message{From: "x", To: "b", Payload: ping{1}}))
	require.NoError(t, bus.Send(transport.Message{From: "y", To: "b", Payload: ping{2}}))
	require.NoError(t, bus.Send(transport.Message{From: "x", To: "b", Payload: ping{3}}))
	require.NoError(t, bus.Send(transport.Message{From: "x", To: "c", Payload: ping{4}}))

	msgs := box.Drain()
	require.Len(t, msgs, 3)
	assert.Equal(t, uint64(1), msgs[0].Seq)
	assert.Equal(t, uint64(1), msgs[1].Seq)
	assert.Equal(t, uint64(2), msgs[2].Seq)
	assert.Equal(t, "test.ping", msgs[0].Payload.Kind())
}

func TestMemBus_FIFOWithConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 200

	bus := transport.NewMemBus()
	box, err := bus.Register("sink")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			from := fmt.Sprintf("p%d", p)
			for i := 0; i < perProducer; i++ {
				err := bus.Send(transport.Message{From: from, To: "sink", Payload: ping{i}})
				assert.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()

	msgs := box.Drain()
	require.Len(t, msgs, producers*perProducer)

	// Within each directed edge: sequence numbers 1..N, in mailbox order,
	// and payloads in send order.
	lastSeq := map[string]uint64{}
	lastPayload := map[string]int{}
	for _, msg := range msgs {
		assert.Equal(t, lastSeq[msg.From]+1, msg.Seq, "edge %s->sink", msg.From)
		lastSeq[msg.From] = msg.Seq

		body := msg.Payload.(ping)
		if msg.Seq > 1 {
			assert.Equal(t, lastPayload[msg.From]+1, body.n, "edge %s->sink", msg.From)
		}
		lastPayload[msg.From] = body.n
	}
	for p := 0; p < producers; p++ {
		assert.Equal(t, uint64(perProducer), lastSeq[fmt.Sprintf("p%d", p)])
	}
}

func TestMailbox_DrainEmpty(t *testing.T) {
	bus := transport.NewMemBus()
	box, err := bus.Register("a")
	require.NoError(t, err)

	assert.Nil(t, box.Drain())
	assert.Zero(t, box.Len())

	require.NoError(t, bus.Send(transport.Message{From: "b", To: "a", Payload: ping{}}))
	assert.Equal(t, 1, box.Len())
	assert.Len(t, box.Drain(), 1)
	assert.Nil(t, box.Drain())
}
