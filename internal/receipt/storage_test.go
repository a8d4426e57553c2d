package receipt

import (
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = filepath.Join(GinkgoT().TempDir(), "photos")
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the directory", func() {
		Expect(tmpDir).To(BeADirectory())
	})

	Describe("Save and Get", func() {
		It("should store the photo under the given name", func() {
			name, err := storage.Save("lidl.jpg", []byte("jpeg bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("lidl.jpg"))
			Expect(filepath.Join(tmpDir, "lidl.jpg")).To(BeAnExistingFile())

			data, err := storage.Get(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("jpeg bytes"))
		})

		When("the photo does not exist", func() {
			It("returns the error", func() {
				_, err := storage.Get("missing.jpg")
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})
	})

	Describe("Delete", func() {
		It("should remove the photo", func() {
			_, err := storage.Save("lidl.jpg", []byte("jpeg bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("lidl.jpg")).To(Succeed())
			Expect(filepath.Join(tmpDir, "lidl.jpg")).NotTo(BeAnExistingFile())
		})

		When("the photo does not exist", func() {
			It("returns the error", func() {
				Expect(storage.Delete("missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
			})
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	It("should drop special characters", func() {
		Expect(sanitizeFilename("IMG_2024 (1)!.jpg")).To(Equal("IMG_2024 1.jpg"))
	})

	It("should truncate long names", func() {
		name := sanitizeFilename(strings.Repeat("a", 80) + ".heic")
		Expect(name).To(Equal(strings.Repeat("a", 50) + ".heic"))
	})

	It("should fall back to receipt", func() {
		Expect(sanitizeFilename("???.png")).To(Equal("receipt.png"))
	})
})
