package history

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

func TestHistory(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "History Suite")
}

// fixedIDGenerator returns IDs from a fixed list
type fixedIDGenerator struct {
	ids  []string
	next int
}

func (g *fixedIDGenerator) Generate() string {
	id := g.ids[g.next%len(g.ids)]
	g.next++
	return id
}

// fixedTimeSource returns a fixed time
type fixedTimeSource struct {
	now time.Time
}

func (t *fixedTimeSource) Now() time.Time {
	return t.now
}

func testResult() *analyzing.Result {
	return &analyzing.Result{
		Receipt: analyzing.Receipt{
			Items: []analyzing.ReceiptItem{
				{Name: "Whole Milk", Category: "Dairy & Eggs", Quantity: 1, UnitPrice: 3.49, TotalPrice: 3.49, Confidence: 0.95},
			},
			Subtotal:  3.49,
			Tax:       0.28,
			Total:     3.77,
			StoreName: "Walmart Supercenter",
		},
		SpendingAnalysis: analyzing.SpendingAnalysis{
			TotalSpending: 3.49,
			CategoryBreakdown: []analyzing.CategoryAnalysis{
				{Category: "Dairy & Eggs", TotalSpent: 3.49, Percentage: 100, ItemCount: 1},
			},
		},
		ProcessedAt: "2026-02-10T12:00:00Z",
	}
}

var _ = ginkgo.Describe("Store", func() {
	var (
		tmpDir string
		files  FileStore
		store  *Store
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		var err error
		files, err = NewLocalFileStore(filepath.Join(tmpDir, "images"))
		Expect(err).NotTo(HaveOccurred())
		store, err = NewStoreWithDeps(
			filepath.Join(tmpDir, "test.db"),
			files,
			&fixedIDGenerator{ids: []string{"1000", "1001", "1002"}},
			&fixedTimeSource{now: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
		)
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	ginkgo.Describe("SaveAnalysis", func() {
		var (
			id  string
			err error
		)

		ginkgo.JustBeforeEach(func() {
			id, err = store.SaveAnalysis(testResult(), []byte("png bytes"))
		})

		ginkgo.It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		ginkgo.It("should return the generated ID", func() {
			Expect(id).To(Equal("1000"))
		})

		ginkgo.It("should persist the full result", func() {
			entry, getErr := store.GetAnalysis("1000")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(entry.Result.Receipt.StoreName).To(Equal("Walmart Supercenter"))
			Expect(entry.Result.SpendingAnalysis.CategoryBreakdown).To(HaveLen(1))
		})

		ginkgo.It("should stamp the entry with the save time", func() {
			entry, _ := store.GetAnalysis("1000")
			Expect(entry.SavedAt).To(Equal(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)))
		})

		ginkgo.It("should store the receipt image", func() {
			data, imgErr := store.GetAnalysisImage("1000")
			Expect(imgErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
		})
	})

	ginkgo.Describe("SaveAnalysis without an image", func() {
		ginkgo.It("should save the entry with no image file", func() {
			id, err := store.SaveAnalysis(testResult(), nil)
			Expect(err).NotTo(HaveOccurred())

			entry, getErr := store.GetAnalysis(id)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(entry.ImageFile).To(BeEmpty())

			_, imgErr := store.GetAnalysisImage(id)
			Expect(imgErr).To(HaveOccurred())
		})
	})

	ginkgo.Describe("GetAnalysis", func() {
		ginkgo.When("the entry does not exist", func() {
			ginkgo.It("returns the error", func() {
				_, err := store.GetAnalysis("missing")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not found"))
			})
		})
	})

	ginkgo.Describe("ListAnalyses", func() {
		ginkgo.When("no entries exist", func() {
			ginkgo.It("should return an empty list", func() {
				entries, err := store.ListAnalyses()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})

		ginkgo.When("entries exist", func() {
			ginkgo.BeforeEach(func() {
				_, err := store.SaveAnalysis(testResult(), nil)
				Expect(err).NotTo(HaveOccurred())
				_, err = store.SaveAnalysis(testResult(), nil)
				Expect(err).NotTo(HaveOccurred())
			})

			ginkgo.It("should return them in ID order", func() {
				entries, err := store.ListAnalyses()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(2))
				Expect(entries[0].ID).To(Equal("1000"))
				Expect(entries[1].ID).To(Equal("1001"))
			})
		})
	})

	ginkgo.Describe("DeleteAnalysis", func() {
		ginkgo.When("the entry exists", func() {
			var id string

			ginkgo.BeforeEach(func() {
				var err error
				id, err = store.SaveAnalysis(testResult(), []byte("png bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			ginkgo.It("should remove the entry", func() {
				Expect(store.DeleteAnalysis(id)).To(Succeed())
				_, err := store.GetAnalysis(id)
				Expect(err).To(HaveOccurred())
			})

			ginkgo.It("should remove the stored image", func() {
				Expect(store.DeleteAnalysis(id)).To(Succeed())
				_, err := files.Get(id + ".png")
				Expect(err).To(HaveOccurred())
			})
		})

		ginkgo.When("the entry does not exist", func() {
			ginkgo.It("returns the error", func() {
				Expect(store.DeleteAnalysis("missing")).To(HaveOccurred())
			})
		})
	})
})

var _ = ginkgo.Describe("LocalFileStore", func() {
	var (
		tmpDir string
		files  FileStore
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		var err error
		files, err = NewLocalFileStore(filepath.Join(tmpDir, "images"))
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.It("should round-trip file data", func() {
		path, err := files.Save("a.png", []byte("data"))
		Expect(err).NotTo(HaveOccurred())
		data, err := files.Get(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("data")))
	})

	ginkgo.It("should delete files", func() {
		path, err := files.Save("a.png", []byte("data"))
		Expect(err).NotTo(HaveOccurred())
		Expect(files.Delete(path)).To(Succeed())
		_, err = files.Get(path)
		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should error when deleting a missing file", func() {
		Expect(files.Delete("missing.png")).To(HaveOccurred())
	})
})
