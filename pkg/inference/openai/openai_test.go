package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/inference"
	"github.com/papercomputeco/adjacent/pkg/inference/openai"
)

func chatReply(content string) string {
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	out, _ := json.Marshal(reply)
	return string(out)
}

var _ = Describe("Driver", func() {
	var (
		server  *httptest.Server
		lastReq map[string]any
		reply   string
		status  int
	)

	BeforeEach(func() {
		reply = chatReply(`{"edges":[]}`)
		status = http.StatusOK
		lastReq = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/chat/completions"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(json.NewDecoder(r.Body).Decode(&lastReq)).To(Succeed())
			w.WriteHeader(status)
			w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newDriver := func() *openai.Driver {
		d, err := openai.NewDriver(openai.Config{
			APIKey:  "test-key",
			BaseURL: server.URL,
			Model:   "test-model",
		})
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	Describe("NewDriver", func() {
		It("should require an api key", func() {
			_, err := openai.NewDriver(openai.Config{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Infer", func() {
		It("should send structured output format and parse proposals", func() {
			reply = chatReply(`{"edges":[{"edge_type":"SIMILAR_TO","from_id":"prod_a","to_id":"prod_b"}]}`)

			proposals, err := newDriver().Infer(context.Background(),
				catalog.Item{ID: "prod_a", Title: "A"},
				[]catalog.Item{{ID: "prod_b", Title: "B"}},
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(proposals).To(HaveLen(1))
			Expect(proposals[0].Type).To(Equal(graph.EdgeTypeSimilarTo))
			Expect(proposals[0].FromID).To(Equal("prod_a"))
			Expect(proposals[0].ToID).To(Equal("prod_b"))

			Expect(lastReq["model"]).To(Equal("test-model"))
			format, ok := lastReq["response_format"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(format["type"]).To(Equal("json_schema"))
		})

		It("should return an empty proposal list unchanged", func() {
			proposals, err := newDriver().Infer(context.Background(),
				catalog.Item{ID: "prod_a"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(proposals).To(BeEmpty())
		})

		It("should wrap provider error statuses in ErrInference", func() {
			status = http.StatusTooManyRequests
			reply = `{"error":{"message":"rate limited"}}`

			_, err := newDriver().Infer(context.Background(),
				catalog.Item{ID: "prod_a"}, nil)
			Expect(err).To(MatchError(inference.ErrInference))
		})

		It("should wrap unparseable content in ErrInference", func() {
			reply = chatReply(`not json`)

			_, err := newDriver().Infer(context.Background(),
				catalog.Item{ID: "prod_a"}, nil)
			Expect(err).To(MatchError(inference.ErrInference))
		})
	})
})
