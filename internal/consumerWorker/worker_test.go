package consumerWorker

import (
	"context"
	"testing"

	"github.com/wb-go/wbf/zlog"
)

// An undecodable body must be acked and dropped, not requeued: a returned
// error makes the consumer Nack with requeue and the message would redeliver
// forever.
func TestHandleDropsUndecodableMessage(t *testing.T) {
	zlog.Init()
	r := NewReader(nil, nil, nil)

	for _, body := range [][]byte{
		[]byte("not json"),
		[]byte(""),
		[]byte("{truncated"),
	} {
		if err := r.handle(context.Background(), body); err != nil {
			t.Errorf("handle(%q) = %v, want nil so the broker does not requeue", body, err)
		}
	}
}
