package ledger

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		photoDir string
		storage  *LocalStorage
	)

	BeforeEach(func() {
		photoDir = filepath.Join(GinkgoT().TempDir(), "photos")
		var err error
		storage, err = NewLocalStorage(photoDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the photo directory", func() {
		Expect(photoDir).To(BeADirectory())
	})

	Describe("Save", func() {
		var (
			name  string
			saved string
			err   error
		)

		BeforeEach(func() {
			name = "abc_invoice.jpg"
		})

		JustBeforeEach(func() {
			saved, err = storage.Save(name, []byte("photo bytes"))
		})

		When("the name is plain", func() {
			It("writes the file under the directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(saved).To(Equal(name))
				Expect(filepath.Join(photoDir, name)).To(BeAnExistingFile())
			})

			It("can be read back", func() {
				data, err := storage.Get(saved)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("photo bytes"))
			})
		})

		When("the name escapes the directory", func() {
			BeforeEach(func() {
				name = "../outside.jpg"
			})

			It("is rejected", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
				Expect(filepath.Join(filepath.Dir(photoDir), "outside.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("the file does not exist", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing.jpg")
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("old.jpg", []byte("x"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it", func() {
				Expect(storage.Delete("old.jpg")).To(Succeed())
				Expect(filepath.Join(photoDir, "old.jpg")).NotTo(BeAnExistingFile())
			})
		})

		When("the file does not exist", func() {
			It("returns an error", func() {
				Expect(storage.Delete("missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
			})
		})

		When("the name is a path", func() {
			It("is rejected", func() {
				Expect(storage.Delete("sub/dir.jpg")).To(MatchError(ContainSubstring("invalid file name")))
			})
		})
	})
})
