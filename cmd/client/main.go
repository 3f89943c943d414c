package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"wsecho/pkg/wsclient"
)

func main() {
	addr := flag.String("addr", "localhost", "server address to connect to")
	port := flag.String("port", "8765", "port to connect to")
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws", net.JoinHostPort(*addr, *port))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ws, err := wsclient.Dial(ctx, url)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", url, err)
	}
	defer ws.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := ws.SendText(scanner.Text()); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		msg, err := ws.Recv()
		if err != nil {
			log.Fatalf("Connection closed: %v", err)
		}
		fmt.Printf("echo: %s\n", msg.Data)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Reading stdin: %v", err)
	}
}
