package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aquaview.dev/monitor/internal/dashboard"
	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/pkg/quality"
)

type stubSource struct{}

func (s *stubSource) Subscribe(func(*quality.RawReading)) (func(), error) {
	return func() {}, nil
}

func (s *stubSource) FetchOnce(context.Context) (*quality.RawReading, error) {
	return nil, nil
}

type stubReports struct {
	text string
	err  error
}

func (r *stubReports) Generate(context.Context, map[quality.ParameterKind]float64) (string, error) {
	return r.text, r.err
}

func ptr(v float64) *float64 { return &v }

func nominalReading() *quality.RawReading {
	return &quality.RawReading{
		TDS:         ptr(250),
		Temperature: ptr(22),
		Turbidity:   ptr(50),
		PH:          ptr(7),
	}
}

var _ = Describe("Dashboard Server", func() {
	var (
		logger   *slog.Logger
		ingestor *ingest.Ingestor
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

		var err error
		ingestor, err = ingest.NewIngestor(&ingest.Config{
			Logger: logger,
			Source: &stubSource{},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	newServer := func(reports dashboard.ReportGenerator) *dashboard.Server {
		server, err := dashboard.NewServer(&dashboard.ServerConfig{
			Logger:   logger,
			HTTPPort: 8080,
			Ingestor: ingestor,
			Reports:  reports,
		})
		Expect(err).NotTo(HaveOccurred())
		return server
	}

	Describe("NewServer", func() {
		It("should return error when config is nil", func() {
			server, err := dashboard.NewServer(nil)
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		It("should return error when logger is nil", func() {
			server, err := dashboard.NewServer(&dashboard.ServerConfig{
				HTTPPort: 8080,
				Ingestor: ingestor,
			})
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		It("should return error when HTTP port is not positive", func() {
			server, err := dashboard.NewServer(&dashboard.ServerConfig{
				Logger:   logger,
				Ingestor: ingestor,
			})
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		It("should return error when ingestor is nil", func() {
			server, err := dashboard.NewServer(&dashboard.ServerConfig{
				Logger:   logger,
				HTTPPort: 8080,
			})
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		It("should create a server with valid config", func() {
			Expect(newServer(nil)).NotTo(BeNil())
		})
	})

	Describe("GET /api/status", func() {
		It("should report idle before any reading", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/status")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var status struct {
				Active bool            `json:"active"`
				View   json.RawMessage `json:"view"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status.Active).To(BeFalse())
			Expect(status.View).To(BeNil())
		})

		It("should serve the consolidated view once active", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/status")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var status struct {
				Active bool `json:"active"`
				View   struct {
					Overall string             `json:"overall"`
					Values  map[string]float64 `json:"values"`
					Tiers   map[string]string  `json:"tiers"`
				} `json:"view"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
			Expect(status.Active).To(BeTrue())
			Expect(status.View.Overall).To(Equal("excellent"))
			Expect(status.View.Values).To(HaveKeyWithValue("turbidity", 0.5))
			Expect(status.View.Tiers).To(HaveKeyWithValue("tds", "excellent"))
		})
	})

	Describe("GET /api/history/{kind}", func() {
		It("should reject unknown parameters", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/history/salinity")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should serve an empty list while idle", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/history/tds")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var history struct {
				Kind   string            `json:"kind"`
				Unit   string            `json:"unit"`
				Points []json.RawMessage `json:"points"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&history)).To(Succeed())
			Expect(history.Kind).To(Equal("tds"))
			Expect(history.Unit).To(Equal("ppm"))
			Expect(history.Points).To(BeEmpty())
		})

		It("should serve scaled turbidity history", func() {
			ingestor.Process(nominalReading())
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/history/turbidity")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var history struct {
				Unit   string `json:"unit"`
				Points []struct {
					Value float64 `json:"value"`
				} `json:"points"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&history)).To(Succeed())
			Expect(history.Unit).To(Equal("NTU"))
			Expect(history.Points).To(HaveLen(2))
			Expect(history.Points[0].Value).To(Equal(0.5))
		})
	})

	Describe("GET /api/alerts", func() {
		It("should serve an empty list for a nominal reading", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/alerts")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var alerts struct {
				Alerts []json.RawMessage `json:"alerts"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&alerts)).To(Succeed())
			Expect(alerts.Alerts).To(BeEmpty())
		})

		It("should surface alerts from the latest reading", func() {
			reading := nominalReading()
			reading.TDS = ptr(950)
			ingestor.Process(reading)

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/alerts")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var alerts struct {
				Alerts []struct {
					ID       string `json:"id"`
					Severity string `json:"severity"`
				} `json:"alerts"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&alerts)).To(Succeed())
			Expect(alerts.Alerts).To(HaveLen(1))
			Expect(alerts.Alerts[0].ID).To(Equal("tds-high"))
			Expect(alerts.Alerts[0].Severity).To(Equal("danger"))
		})
	})

	Describe("GET /api/standards", func() {
		It("should serve the threshold reference table", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/standards")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var standards map[string][]struct {
				Tier  string `json:"tier"`
				Range string `json:"range"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&standards)).To(Succeed())
			Expect(standards).To(HaveLen(4))
			Expect(standards["tds"][0].Tier).To(Equal("excellent"))
			Expect(standards["tds"][0].Range).To(Equal("< 300 ppm"))
		})
	})

	Describe("POST /api/report", func() {
		It("should answer 503 when no report client is configured", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/report", "application/json", nil)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})

		It("should answer 409 while idle", func() {
			ts := httptest.NewServer(newServer(&stubReports{text: "ok"}).Handler())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/report", "application/json", nil)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("should serve the generated report", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(&stubReports{text: "Water looks fine."}).Handler())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/report", "application/json", nil)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var report struct {
				Report string `json:"report"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&report)).To(Succeed())
			Expect(report.Report).To(Equal("Water looks fine."))
		})

		It("should answer 502 when generation fails", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(&stubReports{err: errors.New("quota exceeded")}).Handler())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/report", "application/json", nil)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("settings endpoints", func() {
		It("should default to all four parameters", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/settings")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			var settings struct {
				Selected  []string `json:"selected"`
				Available []string `json:"available"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&settings)).To(Succeed())
			Expect(settings.Selected).To(ConsistOf("tds", "temperature", "turbidity", "ph"))
			Expect(settings.Available).To(Equal([]string{"tds", "temperature", "turbidity", "ph"}))
		})

		It("should replace the selection and affect overall", func() {
			reading := nominalReading()
			reading.TDS = ptr(950)
			ingestor.Process(reading)

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings",
				strings.NewReader(`{"selected":["temperature","ph"]}`))
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var settings struct {
				Selected []string `json:"selected"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&settings)).To(Succeed())
			Expect(settings.Selected).To(ConsistOf("temperature", "ph"))

			status, err := http.Get(ts.URL + "/api/status")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = status.Body.Close() }()

			var statusBody struct {
				View struct {
					Overall string `json:"overall"`
				} `json:"view"`
			}
			Expect(json.NewDecoder(status.Body).Decode(&statusBody)).To(Succeed())
			Expect(statusBody.View.Overall).To(Equal("excellent"))
		})

		It("should reject malformed bodies", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings",
				strings.NewReader(`{broken`))
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /", func() {
		It("should render the idle page", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("No readings received yet"))
			Expect(string(body)).To(ContainSubstring("Water Quality Standards"))
		})

		It("should render current values once active", func() {
			ingestor.Process(nominalReading())

			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Total Dissolved Solids"))
			Expect(string(body)).To(ContainSubstring("No active alerts"))
		})
	})

	Describe("GET /health", func() {
		It("should answer ok", func() {
			ts := httptest.NewServer(newServer(nil).Handler())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(MatchJSON(`{"status":"ok"}`))
		})
	})
})
