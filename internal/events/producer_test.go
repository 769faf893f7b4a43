package events

import (
	"bytes"
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes succsessfully", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			// add the first message
			msg := []byte("msg1")
			err := ep.Write(context.TODO(), DocumentProcessedKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())
			Eventually(func() int { return w.Count() }, 2*time.Second).Should(Equal(1))
			Expect(w.Messages[0].Context.GetType()).To(Equal(DocumentProcessedKind))

			msg = []byte("msg2")
			err = ep.Write(context.TODO(), PipelineFailedKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())

			Eventually(func() int { return w.Count() }, 2*time.Second).Should(Equal(2))

			ep.Close()
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	Messages []cloudevents.Event
}

func newTestWriter() *testwriter {
	return &testwriter{Messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.Messages = append(t.Messages, e)
	return nil
}

func (t *testwriter) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.Messages)
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}
