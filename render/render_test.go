package render

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vainnor/ensemble-predict/types"
)

func TestLayerGeoJSON(t *testing.T) {
	layer := NewLayer()
	layer.DrawLine(Line{
		Member: 3,
		Phase:  types.PhaseRise,
		Color:  "#DC143C",
		Points: []types.PathPoint{{Timestamp: 1, Latitude: 37.4, Longitude: -122.1, Altitude: 0}, {Timestamp: 2, Latitude: 37.5, Longitude: -122.0, Altitude: 900}},
	})
	layer.DrawMarkers([]Marker{{Member: 3, Phase: types.PhaseRise, Point: types.PathPoint{Latitude: 37.4, Longitude: -122.1}, Color: "#DC143C", Radius: 300, Tooltip: "Altitude: 0m"}})

	lines := layer.LinesGeoJSON()
	if len(lines.Features) != 1 {
		t.Fatalf("expected one line feature, got %d", len(lines.Features))
	}
	if lines.Features[0].Properties["stroke"] != "#DC143C" || lines.Features[0].Properties["phase"] != "rise" {
		t.Fatalf("unexpected properties: %v", lines.Features[0].Properties)
	}
	b, err := json.Marshal(lines)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"coordinates":[[-122.1,37.4],[-122,37.5]]`) {
		t.Fatalf("coordinates not in lon,lat order: %s", b)
	}

	if n := len(layer.MarkersGeoJSON().Features); n != 1 {
		t.Fatalf("expected one marker feature, got %d", n)
	}

	layer.ClearLines()
	layer.ClearMarkers()
	if len(layer.Lines()) != 0 || len(layer.Markers()) != 0 {
		t.Fatalf("layer not cleared")
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewLayer(), NewLayer()
	r := Multi(a, b, Discard)
	r.DrawLine(Line{Member: 1})
	r.DrawMarkers([]Marker{{Member: 1}, {Member: 1, Index: 1}})
	if len(a.Lines()) != 1 || len(b.Lines()) != 1 || len(b.Markers()) != 2 {
		t.Fatalf("multi did not reach every renderer")
	}
	r.ClearMarkers()
	if len(a.Markers()) != 0 {
		t.Fatalf("multi did not clear markers")
	}
}

func TestHubStreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.DrawLine(Line{Member: 7, Phase: types.PhaseFall, Color: "#000000"})
	hub.Notify("ERROR: member failed")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read line event: %v", err)
	}
	if ev.Type != EventLine || ev.Line == nil || ev.Line.Member != 7 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read notice event: %v", err)
	}
	if ev.Type != EventNotice || ev.Message != "ERROR: member failed" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
