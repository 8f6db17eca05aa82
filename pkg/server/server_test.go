package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/server"
	"github.com/taskalign/taskalign/pkg/test"
	"github.com/taskalign/taskalign/pkg/test/expectations"
)

var _ = Describe("Server", func() {
	var handler http.Handler

	BeforeEach(func() {
		cfg := server.DefaultConfig()
		// Tests fire requests back to back; keep the limiter out of the way
		// unless a spec opts in.
		cfg.RequestsPerSecond = 1000
		cfg.RequestBurst = 1000
		handler = server.New(cfg, nil).Handler()
	})

	post := func(body any) *httptest.ResponseRecorder {
		GinkgoHelper()
		raw, err := json.Marshal(body)
		Expect(err).ToNot(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/schedule", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	decodeResponse := func(rec *httptest.ResponseRecorder) *v1.ScheduleResponse {
		GinkgoHelper()
		resp := &v1.ScheduleResponse{}
		Expect(json.Unmarshal(rec.Body.Bytes(), resp)).To(Succeed())
		return resp
	}

	decodeError := func(rec *httptest.ResponseRecorder) string {
		GinkgoHelper()
		errResp := &v1.ErrorResponse{}
		Expect(json.Unmarshal(rec.Body.Bytes(), errResp)).To(Succeed())
		return errResp.Detail
	}

	Describe("POST /schedule", func() {
		It("solves a valid request", func() {
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MoldChangeTimeHours:  1,
				ColorChangeTimeHours: 0.5,
			})
			rec := post(req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			resp := decodeResponse(rec)
			expectations.ExpectValidSchedule(req, resp)
			Expect(resp.Unmet).To(BeEmpty())
		})

		It("rejects malformed JSON with a detail message", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader("{not json"))
			handler.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec)).To(ContainSubstring("malformed request body"))
		})

		It("rejects cyclic prerequisites as a client error", func() {
			rec := post(test.ScheduleRequest(v1.ScheduleRequest{
				Components: []v1.Component{
					test.Component(v1.Component{ID: "a", Prerequisites: []string{"b"}}),
					test.Component(v1.Component{ID: "b", Prerequisites: []string{"a"}}),
				},
			}))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec)).To(ContainSubstring("cycle"))
		})

		It("rejects infeasible input as a client error", func() {
			rec := post(test.ScheduleRequest(v1.ScheduleRequest{
				Machines: []v1.Machine{test.Machine(v1.Machine{Group: v1.GroupSmall})},
				Molds:    []v1.Mold{test.Mold(v1.Mold{Group: v1.GroupLarge})},
			}))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(rec)).To(ContainSubstring("no machine admits"))
		})

		It("serves identical responses for repeated seeded requests", func() {
			req := test.ScheduleRequest()
			first := post(req)
			second := post(req)
			Expect(first.Code).To(Equal(http.StatusOK))
			Expect(second.Code).To(Equal(http.StatusOK))
			Expect(second.Body.String()).To(Equal(first.Body.String()))
		})

		It("throttles when the rate limit is exhausted", func() {
			cfg := server.DefaultConfig()
			cfg.RequestsPerSecond = 0.0001
			cfg.RequestBurst = 1
			limited := server.New(cfg, nil).Handler()

			body, err := json.Marshal(test.ScheduleRequest())
			Expect(err).ToNot(HaveOccurred())
			codes := []int{}
			for i := 0; i < 2; i++ {
				rec := httptest.NewRecorder()
				limited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule", bytes.NewReader(body)))
				codes = append(codes, rec.Code)
			}
			Expect(codes).To(Equal([]int{http.StatusOK, http.StatusTooManyRequests}))
		})
	})

	Describe("GET /healthz", func() {
		It("reports ok", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"status":"ok"`))
		})
	})

	Describe("GET /metrics", func() {
		It("exposes the scheduler registry", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("taskalign_"))
		})
	})
})
