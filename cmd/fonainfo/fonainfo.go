// SPDX-License-Identifier: MIT

// fonainfo initializes a FONA module and displays its identity, signal
// and registration state.
//
// This serves as an example of how to bring up the driver, as well as
// providing information which may be useful for debugging.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/celldrv/fona/at"
	"github.com/celldrv/fona/fona"
	"github.com/celldrv/fona/serial"
	"github.com/celldrv/fona/trace"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	timeout := flag.Duration("t", 500*time.Millisecond, "command timeout period")
	verbose := flag.Bool("v", false, "log modem interactions")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}
	p, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Println(err)
		return
	}
	defer p.Close()
	var mio at.Transport = p
	if *verbose {
		mio = trace.New(p)
	}
	d := fona.New(at.New(mio, at.WithTimeout(*timeout)))
	if err = d.Init(context.Background()); err != nil {
		log.Println(err)
		return
	}
	fmt.Println("variant:", d.Variant())

	if imei, err := d.IMEI(); err == nil {
		fmt.Println("IMEI:", imei)
	} else {
		fmt.Println("IMEI:", err)
	}
	if iccid, err := d.ICCID(); err == nil {
		fmt.Println("ICCID:", iccid)
	} else {
		fmt.Println("ICCID:", err)
	}
	if s, err := d.NetworkStatus(); err == nil {
		fmt.Println("registration:", s)
	} else {
		fmt.Println("registration:", err)
	}
	if dbm, err := d.RSSI(); err == nil {
		fmt.Printf("RSSI: %ddBm\n", dbm)
	} else {
		fmt.Println("RSSI:", err)
	}
	if attached, err := d.GPRSAttached(); err == nil {
		fmt.Println("GPRS attached:", attached)
	} else {
		fmt.Println("GPRS attached:", err)
	}
}
