package scanning

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func pngImage(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, height/2, color.Black)
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Prepare", func() {
	var (
		input       []byte
		contentType string
		output      []byte
		err         error
	)

	JustBeforeEach(func() {
		output, err = Prepare(input, contentType)
	})

	When("the image is larger than the size limit", func() {
		BeforeEach(func() {
			input = pngImage(2800, 1000)
			contentType = "image/png"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return a JPEG fitted within the limit", func() {
			cfg, format, decodeErr := image.DecodeConfig(bytes.NewReader(output))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
			Expect(cfg.Width).To(Equal(1400))
			Expect(cfg.Height).To(Equal(500))
		})
	})

	When("the image is already small", func() {
		BeforeEach(func() {
			input = pngImage(300, 200)
			contentType = ""
		})

		It("should keep its size", func() {
			Expect(err).NotTo(HaveOccurred())
			cfg, _, decodeErr := image.DecodeConfig(bytes.NewReader(output))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(cfg.Width).To(Equal(300))
			Expect(cfg.Height).To(Equal(200))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			input = []byte("definitely not an image")
			contentType = "image/jpeg"
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("HEIC detection", func() {
	It("recognizes the ftyp brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("ignores short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("ignores other brands", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypisom0000")...)
		Expect(isHEICFormat(data)).To(BeFalse())
	})

	It("recognizes HEIC MIME types", func() {
		Expect(isHEICMimeType(" image/HEIC ")).To(BeTrue())
		Expect(isHEICMimeType("image/heif")).To(BeTrue())
		Expect(isHEICMimeType("image/jpeg")).To(BeFalse())
	})
})

var _ = Describe("Prompt", func() {
	It("lists the allowed categories", func() {
		Expect(Prompt([]string{"Gas", "Other"})).To(ContainSubstring("Exactly one of: Gas, Other."))
	})

	It("asks for every inbound key", func() {
		p := Prompt(nil)
		for _, key := range []string{"date", "supplier", "net_total", "vat_amount", "sub_category", "items", "line_total"} {
			Expect(p).To(ContainSubstring(`"` + key + `"`))
		}
	})
})
