package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"golang.org/x/net/websocket"

	"github.com/robotalks/impactlog/pkg/report"
	"github.com/robotalks/impactlog/pkg/report/mqtt"
	ws "github.com/robotalks/impactlog/pkg/report/websocket"
)

var (
	mqttURL    = "mqtt://localhost:1883/"
	listenAddr string
	device     = "+"
)

func init() {
	if val := os.Getenv("IMPACT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Accept WebSocket reporters on this address.")
	flag.StringVar(&device, "device", device, "Device ID to monitor.")
}

func printPacket(from string, pkt []byte) {
	s, err := report.DecodePacket(pkt)
	if err != nil {
		log.Printf("%s: bad packet: %v", from, err)
		return
	}
	str, err := (&jsonpb.Marshaler{}).MarshalToString(s)
	if err != nil {
		log.Printf("%s: %v", from, err)
		return
	}
	log.Printf("%s: %s", from, str)
}

func serveWebSocket(conn *websocket.Conn) {
	rw := ws.New(conn)
	defer rw.Close()
	from := conn.Request().RemoteAddr
	log.Printf("%s: connected", from)
	for {
		pkt, err := rw.ReadPacket()
		if err != nil {
			log.Printf("%s: %v", from, err)
			return
		}
		printPacket(from, pkt)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if mqttURL != "" {
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			log.Fatalln(err)
		}
		if err := q.Connect(5 * time.Second); err != nil {
			log.Fatalln(err)
		}
		defer q.Close()
		err = q.Subscribe(mqtt.RecordsTopic(device), 1, 5*time.Second, mqtt.Handler(printPacket))
		if err != nil {
			log.Fatalln(err)
		}
	}

	if listenAddr != "" {
		http.Handle("/", websocket.Handler(serveWebSocket))
		log.Fatalln(http.ListenAndServe(listenAddr, nil))
	}
	<-(chan struct{})(nil)
}
