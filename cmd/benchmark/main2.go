package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang-io/requests"
)

// runPahoBaseline drives the same maxConn/publish-once-a-second/subscribe-
// to-everything workload as main() through paho.mqtt.golang, so the two
// can be benchmarked against the same broker under the same load.
func runPahoBaseline() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	group := sync.WaitGroup{}
	for i := 0; i < maxConn; i++ {
		i := i
		group.Add(1)
		go func() {
			defer group.Done()
			pahoMqttStart(i)
		}()
	}
	group.Wait()
}

func onMessageReceived(client paho_mqtt.Client, message paho_mqtt.Message) {
	log.Printf("topic:%s, msg:%s", message.Topic(), message.Payload())
}

func pahoMqttStart(i int) {
	server := "tcp://127.0.0.1:1883"
	qos := byte(0x00)
	id := requests.GenId()
	connOpts := paho_mqtt.NewClientOptions().AddBroker(server).SetClientID(id).SetCleanSession(true)
	connOpts.SetAutoReconnect(false)

	client := paho_mqtt.NewClient(connOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	fmt.Printf("Connected to %s\n", server)

	if token := client.Subscribe("+", qos, onMessageReceived); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}

	timer := time.NewTimer(0 * time.Second)
	for {
		<-timer.C
		if t := client.Publish(fmt.Sprintf("topic_%02d", i), qos, false, fmt.Sprintf("paho_mqtt:test-%02d", i)); t.Wait() && t.Error() != nil {
			log.Println(t.Error())
			panic(t.Error())
		}
		timer.Reset(time.Second)
	}
}
