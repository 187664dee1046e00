package analyzing

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Remote", func() {
	var (
		backend *ghttp.Server
		remote  *Remote
	)

	BeforeEach(func() {
		backend = ghttp.NewServer()
		var err error
		remote, err = NewRemote(backend.URL(), 0)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		backend.Close()
	})

	Describe("NewRemote", func() {
		It("should require a base URL", func() {
			_, err := NewRemote("", 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Analyze", func() {
		successEnvelope := func() map[string]interface{} {
			return map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"receipt": map[string]interface{}{
						"items": []map[string]interface{}{
							{"name": "Milk", "quantity": 1, "unit_price": 3.50, "total_price": 3.50, "category": "Dairy & Eggs", "confidence": 0.95},
						},
						"total": 3.50,
					},
					"spending_analysis": map[string]interface{}{
						"total_spending": 3.50,
						"top_category":   "Dairy & Eggs",
					},
					"processed_at": "2026-03-20T10:00:00Z",
				},
				"processing_time": 12.4,
			}
		}

		When("the service succeeds", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/analyze"),
					ghttp.VerifyContentType("application/json"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{
						"image_base64":             "aGVsbG8=",
						"aggressive_preprocessing": true,
					}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, successEnvelope()),
				))
			})

			It("should return the unwrapped result", func() {
				result, err := remote.Analyze(context.Background(), "aGVsbG8=", true)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Receipt.Items).To(HaveLen(1))
				Expect(result.Receipt.Items[0].Name).To(Equal("Milk"))
				Expect(result.SpendingAnalysis.TopCategory).To(Equal("Dairy & Eggs"))
			})
		})

		When("the service reports failure with HTTP 200", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
					"success": false,
					"error":   "Could not read the receipt",
				}))
			})

			It("should return the envelope error", func() {
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError("Could not read the receipt"))
			})
		})

		When("the service reports failure without a message", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
					"success": true,
				}))
			})

			It("should fall back to a generic message", func() {
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError("Analysis failed"))
			})
		})

		When("the service returns an error status with a detail body", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusUnprocessableEntity, map[string]interface{}{
					"detail": "Image too blurry to read",
					"error":  "unprocessable",
				}))
			})

			It("should prefer the detail field", func() {
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError("Image too blurry to read"))
			})
		})

		When("the service returns an error status with only an error field", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusInternalServerError, map[string]interface{}{
					"error": "model overloaded",
				}))
			})

			It("should use the error field", func() {
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError("model overloaded"))
			})
		})

		When("the service returns an error status with an unparseable body", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "<html>Bad Gateway</html>"))
			})

			It("should report the status code", func() {
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError(ContainSubstring("status 502")))
			})
		})

		When("the service is unreachable", func() {
			It("should return a transport error", func() {
				backend.Close()
				_, err := remote.Analyze(context.Background(), "aGVsbG8=", false)
				Expect(err).To(MatchError(ContainSubstring("calling analyze API")))
			})
		})

		When("the context is cancelled", func() {
			It("should abort the call", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := remote.Analyze(ctx, "aGVsbG8=", false)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("HealthCheck", func() {
		When("the service is healthy", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/health"),
					ghttp.RespondWith(http.StatusOK, "ok"),
				))
			})

			It("should return true", func() {
				Expect(remote.HealthCheck(context.Background())).To(BeTrue())
			})
		})

		When("the service is down", func() {
			It("should return false", func() {
				backend.Close()
				Expect(remote.HealthCheck(context.Background())).To(BeFalse())
			})
		})
	})
})
