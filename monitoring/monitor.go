// Package monitoring turns a running simulation into a web server that can
// be queried and controlled over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	httppprof "net/http/pprof"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/idgen"
	"github.com/sarchlab/devs/tracing"
)

// Simulation is what the monitor needs from a simulator.
type Simulation[P any] interface {
	Pause()
	Continue()
	IsPaused() bool
	CurrentTime() devs.VTime
	Steps() uint64
	ModelNames() []string
	ModelByName(name string) (devs.ModelID, bool)
	ModelName(id devs.ModelID) string
	Model(id devs.ModelID) devs.Model[P]
	PendingEvents() []devs.Event[P]
	TraceSoFar() devs.Trace[P]
	Inspect(f func())
}

// RecordSource provides trace records collected so far.
type RecordSource interface {
	Records(filter tracing.RecordFilter) []tracing.Record
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor[P any] struct {
	sim        Simulation[P]
	records    RecordSource
	portNumber int
	ids        idgen.Generator
	log        *logrus.Entry

	server *http.Server
	url    string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor[P any]() *Monitor[P] {
	return &Monitor[P]{
		ids: idgen.NewGlobal(),
		log: logrus.WithField("component", "monitor"),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor[P]) WithPortNumber(portNumber int) *Monitor[P] {
	if portNumber < 1000 {
		m.log.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSimulation registers the simulation to monitor.
func (m *Monitor[P]) RegisterSimulation(s Simulation[P]) {
	m.sim = s
}

// RegisterRecordSource makes the records of src available at /api/records.
func (m *Monitor[P]) RegisterRecordSource(src RecordSource) {
	m.records = src
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor[P]) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor[P]) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router serving the monitoring API.
func (m *Monitor[P]) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.continueSim)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/steps", m.steps)
	r.HandleFunc("/api/list_models", m.listModels)
	r.HandleFunc("/api/model/{name}", m.modelDetails)
	r.HandleFunc("/api/queue", m.queue)
	r.HandleFunc("/api/trace", m.trace)
	r.HandleFunc("/api/records", m.listRecords)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/debug/pprof/profile", httppprof.Profile)
	r.PathPrefix("/debug/pprof/").HandlerFunc(httppprof.Index)

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor[P]) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			m.log.WithError(err).Error("monitoring server stopped")
		}
	}()

	return m.url
}

// StopServer shuts the web server down.
func (m *Monitor[P]) StopServer() error {
	if m.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.server.Shutdown(ctx)
}

// OpenBrowser opens the monitoring page in the default browser.
func (m *Monitor[P]) OpenBrowser() error {
	if m.url == "" {
		return fmt.Errorf("monitoring server is not running")
	}

	return browser.OpenURL(m.url)
}

func (m *Monitor[P]) pause(w http.ResponseWriter, _ *http.Request) {
	m.sim.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor[P]) continueSim(w http.ResponseWriter, _ *http.Request) {
	m.sim.Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Now    float64 `json:"now"`
	Index  uint64  `json:"index"`
	Paused bool    `json:"paused"`
}

func (m *Monitor[P]) now(w http.ResponseWriter, _ *http.Request) {
	now := m.sim.CurrentTime()

	m.writeJSON(w, nowRsp{
		Now:    now.Real,
		Index:  now.Index,
		Paused: m.sim.IsPaused(),
	})
}

func (m *Monitor[P]) steps(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"steps\":%d}", m.sim.Steps())
}

func (m *Monitor[P]) listModels(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.sim.ModelNames())
}

func (m *Monitor[P]) modelDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	id, ok := m.sim.ModelByName(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Model not found"))
		dieOnErr(err)

		return
	}

	buf := bytes.NewBuffer(nil)

	var err error
	m.sim.Inspect(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(m.sim.Model(id))
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})
	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

type eventRsp[P any] struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	Time   float64 `json:"time"`
	Index  uint64  `json:"index"`
	Model  string  `json:"model"`
	Inputs []P     `json:"inputs"`
}

func (m *Monitor[P]) queue(w http.ResponseWriter, _ *http.Request) {
	events := m.sim.PendingEvents()

	rsp := make([]eventRsp[P], len(events))
	for i, e := range events {
		rsp[i] = eventRsp[P]{
			ID:     e.ID,
			Kind:   e.Kind.String(),
			Time:   e.Time.Real,
			Index:  e.Time.Index,
			Model:  m.sim.ModelName(e.Model),
			Inputs: e.Inputs,
		}
	}

	m.writeJSON(w, rsp)
}

type traceEntryRsp[P any] struct {
	Time   float64 `json:"time"`
	Output P       `json:"output"`
}

func (m *Monitor[P]) trace(w http.ResponseWriter, _ *http.Request) {
	trace := m.sim.TraceSoFar()

	rsp := make([]traceEntryRsp[P], len(trace))
	for i, e := range trace {
		rsp[i] = traceEntryRsp[P]{Time: e.Time, Output: e.Output}
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor[P]) listRecords(w http.ResponseWriter, r *http.Request) {
	if m.records == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	model := r.URL.Query().Get("model")
	kind := r.URL.Query().Get("kind")

	records := m.records.Records(func(rec tracing.Record) bool {
		return (model == "" || rec.Model == model) &&
			(kind == "" || rec.Kind == kind)
	})
	if records == nil {
		records = []tracing.Record{}
	}

	m.writeJSON(w, records)
}

func (m *Monitor[P]) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor[P]) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor[P]) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	m.writeJSON(w, prof)
}

func (m *Monitor[P]) writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	if err != nil {
		m.log.WithError(err).Debug("failed to write response")
	}
}

func dieOnErr(err error) {
	if err != nil {
		logrus.Panic(err)
	}
}
