// Command benchmark drives maxConn concurrent clients against a broker,
// each publishing once a second and subscribed to everything, to compare
// against main2.go's paho.mqtt.golang baseline under the same load.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nodewire/mqttc"
	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/txrx"
	"golang.org/x/sync/errgroup"
)

var maxConn = 100

func main() {
	paho := flag.Bool("paho", false, "run the paho.mqtt.golang baseline instead of this package's client")
	flag.Parse()
	if *paho {
		runPahoBaseline()
		return
	}

	group, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < maxConn; i++ {
		i := i
		c := mqttc.New(
			mqttc.WithBroker("127.0.0.1", 1883),
			mqttc.WithClientID(fmt.Sprintf("%d", i)),
		)
		c.OnMessage(func(m txrx.Message) {
			log.Printf("id=%s, topic=%s, msg=%s", c.ID(), m.Topic, m.Payload)
		})

		filters := []packet.TopicFilter{}
		if tf, err := packet.NewTopicFilter("+", 0); err == nil {
			filters = append(filters, tf)
		}
		if tf, err := packet.NewTopicFilter("a/b/c", 0); err == nil {
			filters = append(filters, tf)
		}

		group.Go(func() error {
			return c.ConnectAndSubscribe(ctx, filters)
		})

		group.Go(func() error {
			timer := time.NewTimer(time.Second)
			defer timer.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-timer.C:
					if _, err := c.Publish(fmt.Sprintf("topic-%d", i), []byte("hello world"), 0, false); err != nil {
						log.Printf("id=%d, publish: %v", i, err)
					}
					timer.Reset(time.Second)
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		panic(err)
	}
}
