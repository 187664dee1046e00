package sample

import (
	"bytes"
	"image/png"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSample(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sample Suite")
}

var _ = Describe("Bundled receipts", func() {
	It("loads three demo receipts", func() {
		receipts, err := All()
		Expect(err).NotTo(HaveOccurred())
		Expect(receipts).To(HaveLen(3))
		for _, r := range receipts {
			Expect(r.ID).NotTo(BeEmpty())
			Expect(r.Name).NotTo(BeEmpty())
			Expect(r.Store).NotTo(BeEmpty())
		}
	})

	It("carries decodable PNG payloads", func() {
		receipts, err := All()
		Expect(err).NotTo(HaveOccurred())
		for _, r := range receipts {
			data, err := r.ImagePNG()
			Expect(err).NotTo(HaveOccurred())
			_, err = png.Decode(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
		}
	})

	Describe("ByID", func() {
		It("finds a receipt by id", func() {
			r, err := ByID("walmart-groceries")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Store).To(Equal("Walmart Supercenter"))
		})

		It("errors on an unknown id", func() {
			_, err := ByID("no-such-sample")
			Expect(err).To(MatchError(ContainSubstring("unknown sample receipt")))
		})
	})
})
