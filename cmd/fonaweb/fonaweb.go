// SPDX-License-Identifier: MIT

// fonaweb exposes a FONA modem over HTTP for debugging: identity, signal
// and bearer state as JSON, SMS sending, and a live websocket stream of
// the AT exchange.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/celldrv/fona/at"
	"github.com/celldrv/fona/cell"
	"github.com/celldrv/fona/fona"
	"github.com/celldrv/fona/serial"
	"github.com/celldrv/fona/trace"
)

var version = "undefined"

// Config is the fonaweb configuration file.
type Config struct {
	Listen string `yaml:"listen"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	APN    struct {
		Name     string `yaml:"name"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"apn"`
}

func loadConfig(path string) (*Config, error) {
	c := &Config{
		Listen: ":8080",
		Device: "/dev/ttyUSB0",
		Baud:   115200,
	}
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

// server serializes access to the modem - the driver is single threaded
// and the transport is half duplex, so concurrent HTTP requests must
// queue.
type server struct {
	mu  sync.Mutex
	dev *fona.Device
	net *cell.Network
	hub *hub
}

func main() {
	cfgPath := flag.String("c", "", "path to config file")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	p, err := serial.New(serial.WithPort(cfg.Device), serial.WithBaud(cfg.Baud))
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	h := newHub()
	mio := trace.New(p, trace.WithLogger(h))
	d := fona.New(at.New(mio))
	if err = d.Init(context.Background()); err != nil {
		log.Fatal(err)
	}
	log.Println("modem:", d.Variant())

	s := &server{
		dev: d,
		net: cell.New(d, fona.APN{
			Name:     cfg.APN.Name,
			Username: cfg.APN.Username,
			Password: cfg.APN.Password,
		}),
		hub: h,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/info", s.handleInfo).Methods("GET")
	api.HandleFunc("/signal", s.handleSignal).Methods("GET")
	api.HandleFunc("/bearer", s.handleBearer).Methods("GET")
	api.HandleFunc("/bearer/connect", s.handleConnect).Methods("POST")
	api.HandleFunc("/bearer/disconnect", s.handleDisconnect).Methods("POST")
	api.HandleFunc("/sms/send", s.handleSendSMS).Methods("POST")
	r.HandleFunc("/ws/trace", s.hub.handleWebSocket)

	log.Println("listening on", cfg.Listen)
	log.Fatal(http.ListenAndServe(cfg.Listen, r))
}

func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	imei, _ := s.dev.IMEI()
	iccid, _ := s.dev.ICCID()
	writeJSON(w, map[string]interface{}{
		"variant": s.dev.Variant().String(),
		"imei":    imei,
		"iccid":   iccid,
	})
}

func (s *server) handleSignal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dbm, err := s.dev.RSSI()
	if err != nil {
		httpError(w, err)
		return
	}
	reg, err := s.dev.NetworkStatus()
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"rssi_dbm":     dbm,
		"registration": reg.String(),
	})
}

func (s *server) handleBearer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attached, err := s.dev.GPRSAttached()
	if err != nil {
		httpError(w, err)
		return
	}
	rsp := map[string]interface{}{
		"attached":  attached,
		"connected": s.net.Connected(),
	}
	if s.net.Connected() {
		if ip, err := s.dev.LocalIP(); err == nil {
			rsp["local_ip"] = ip.String()
		}
	}
	writeJSON(w, rsp)
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()
	if err := s.net.Connect(ctx); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"connected": true})
}

func (s *server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.net.Disconnect(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"connected": false})
}

func (s *server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number  string `json:"number"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dev.SendSMS(req.Number, req.Message); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"sent": true})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadGateway)
}
