// SPDX-License-Identifier: MIT

// tcpsend brings up the GPRS bearer, opens a TCP connection through the
// modem and sends a message, printing any reply.
//
// This serves as an example of the socket layer and the cell facade
// working together.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/celldrv/fona/at"
	"github.com/celldrv/fona/cell"
	"github.com/celldrv/fona/fona"
	"github.com/celldrv/fona/serial"
	"github.com/celldrv/fona/trace"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	apn := flag.String("apn", "", "APN name")
	user := flag.String("user", "", "APN username")
	pass := flag.String("pass", "", "APN password")
	addr := flag.String("addr", "", "destination host:port")
	msg := flag.String("msg", "hello", "message to send")
	wait := flag.Duration("wait", 5*time.Second, "how long to wait for a reply")
	verbose := flag.Bool("v", false, "log modem interactions")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}
	if *apn == "" || *addr == "" {
		flag.Usage()
		os.Exit(1)
	}
	p, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()
	var mio at.Transport = p
	if *verbose {
		mio = trace.New(p)
	}
	d := fona.New(at.New(mio))
	ctx := context.Background()
	if err = d.Init(ctx); err != nil {
		log.Fatal(err)
	}
	log.Println("modem:", d.Variant())

	n := cell.New(d, fona.APN{Name: *apn, Username: *user, Password: *pass})
	if err = n.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	defer n.Disconnect(ctx)
	ip, err := d.LocalIP()
	if err != nil {
		log.Fatal(err)
	}
	log.Println("bearer up, local IP", ip)

	c, err := d.Dial("tcp", *addr)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()
	if _, err = c.Write([]byte(*msg)); err != nil {
		log.Fatal(err)
	}
	log.Println("sent", len(*msg), "bytes")

	c.SetReadDeadline(time.Now().Add(*wait))
	buf := make([]byte, 256)
	rn, err := c.Read(buf)
	if err != nil {
		log.Println("no reply:", err)
		return
	}
	fmt.Printf("%s\n", buf[:rn])
}
