package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodewire/mqttc"
	"github.com/nodewire/mqttc/packet"
	"github.com/nodewire/mqttc/txrx"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	c := mqttc.New(
		mqttc.WithBroker("127.0.0.1", 1883),
		mqttc.WithClientID("mqtt-client-demo"),
		mqttc.WithKeepAlive(30_000),
	)
	c.OnMessage(func(m txrx.Message) {
		log.Printf("on: topic=%s payload=%s qos=%d", m.Topic, m.Payload, m.QoS)
	})
	c.OnConnect(func(sessionPresent bool, code packet.ReturnCode) {
		log.Printf("connack: session_present=%v code=%s", sessionPresent, code)
	})
	c.OnError(func(err error) {
		log.Printf("error: %v", err)
	})

	filters := []packet.TopicFilter{}
	if tf, err := packet.NewTopicFilter("a/b/c", 1); err == nil {
		filters = append(filters, tf)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if _, err := c.Publish("12345", []byte(time.Now().Format("2006-01-02 15:04:05")), 0, false); err != nil {
				log.Printf("publish: %v", err)
			}
			time.Sleep(time.Second)
		}
	})

	group.Go(func() error {
		defer cancel()
		ignore := make(chan os.Signal, 1)
		sig := make(chan os.Signal, 1)

		signal.Notify(ignore, syscall.SIGHUP)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-ctx.Done():
			log.Printf("ctx done")
			return ctx.Err()
		case s := <-sig:
			return fmt.Errorf("got signal: %s", s)
		}
	})

	group.Go(func() error {
		return c.ConnectAndSubscribe(ctx, filters)
	})

	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}
