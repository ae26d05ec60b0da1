// Package main provides the control CLI for the player daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/soundkite/radiobox/internal/api/control"
)

var (
	app    = kingpin.New("radioctl", "radiobox player control client")
	server = app.Flag("server", "Daemon address").Default("http://localhost:8090").String()

	playCmd   = app.Command("play", "Start playback")
	stopCmd   = app.Command("stop", "Stop playback")
	toggleCmd = app.Command("toggle", "Toggle playback")
	statusCmd = app.Command("status", "Show player status")

	volumeCmd = app.Command("volume", "Volume control")
	volumeSet = volumeCmd.Command("set", "Set volume level")
	volumeArg = volumeSet.Arg("level", "Volume in [0,1]").Required().Float64()
	volumeUp  = volumeCmd.Command("up", "Nudge volume up by 0.1")
	volumeDn  = volumeCmd.Command("down", "Nudge volume down by 0.1")

	lifecycleCmd = app.Command("lifecycle", "Report an application state transition")
	lifecycleArg = lifecycleCmd.Arg("state", "active, inactive or background").Required().Enum("active", "inactive", "background")

	watchCmd = app.Command("watch", "Stream player events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case playCmd.FullCommand():
		printStatus(post("/v1/play", nil))
	case stopCmd.FullCommand():
		printStatus(post("/v1/stop", nil))
	case toggleCmd.FullCommand():
		printStatus(post("/v1/toggle", nil))
	case statusCmd.FullCommand():
		printStatus(get("/v1/status"))
	case volumeSet.FullCommand():
		setVolume(control.VolumeRequest{Volume: volumeArg})
	case volumeUp.FullCommand():
		delta := 0.1
		setVolume(control.VolumeRequest{Delta: &delta})
	case volumeDn.FullCommand():
		delta := -0.1
		setVolume(control.VolumeRequest{Delta: &delta})
	case lifecycleCmd.FullCommand():
		post("/v1/lifecycle", control.LifecycleRequest{State: *lifecycleArg})
		fmt.Printf("Reported state: %s\n", *lifecycleArg)
	case watchCmd.FullCommand():
		watch()
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func get(path string) []byte {
	resp, err := http.Get(*server + path)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()
	return readBody(resp)
}

func post(path string, body any) []byte {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			fail(err)
		}
	}
	resp, err := http.Post(*server+path, "application/json", &payload)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()
	return readBody(resp)
}

func readBody(resp *http.Response) []byte {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		fail(err)
	}
	if resp.StatusCode >= 400 {
		fail(fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(buf.String())))
	}
	return buf.Bytes()
}

func printStatus(data []byte) {
	var st control.StatusResponse
	if err := json.Unmarshal(data, &st); err != nil {
		fail(err)
	}
	fmt.Printf("%s: %s [%s]\n", st.Stream, st.StatusText, st.StatusColor)
	fmt.Printf("  volume: %.0f%%\n", st.Volume*100)
	if st.ReconnectAttempts > 0 {
		fmt.Printf("  reconnect attempts: %d\n", st.ReconnectAttempts)
	}
	fmt.Printf("  app state: %s\n", st.AppState)
}

func setVolume(req control.VolumeRequest) {
	data := post("/v1/volume", req)
	var vr control.VolumeResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		fail(err)
	}
	fmt.Printf("Volume: %.0f%%\n", vr.Volume*100)
}

// watch streams player events over the websocket feed until interrupted.
func watch() {
	u, err := url.Parse(*server)
	if err != nil {
		fail(err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/events"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fail(err)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
		os.Exit(0)
	}()

	fmt.Println("Watching player events (Ctrl-C to quit)...")
	for {
		var ev control.WireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			fail(err)
		}
		printEvent(ev)
	}
}

func printEvent(ev control.WireEvent) {
	switch ev.Type {
	case "retry_scheduled":
		fmt.Printf("[%s] retry %d in %dms\n", ev.StatusText, ev.Attempt, ev.DelayMs)
	case "terminal_failure":
		fmt.Printf("[%s] giving up: %s\n", ev.StatusText, ev.Error)
	case "volume_changed":
		fmt.Printf("[%s] volume %.0f%%\n", ev.StatusText, ev.Volume*100)
	default:
		fmt.Printf("[%s]\n", ev.StatusText)
	}
}
