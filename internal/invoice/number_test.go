package invoice

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeNumber", func() {
	DescribeTable("parsable values",
		func(input any, expected float64) {
			a := NormalizeNumber(input)
			Expect(a.Valid).To(BeTrue())
			Expect(a.Value).To(BeNumerically("~", expected, 1e-9))
		},
		Entry("comma thousands separator", "13,050", 13050.0),
		Entry("dot thousands separator", "13.050", 13050.0),
		Entry("decimal comma", "13,05", 13.05),
		Entry("decimal point", "13.05", 13.05),
		Entry("comma and dot together", "1,234.56", 1234.56),
		Entry("several comma groups", "1,234,567", 1234567.0),
		Entry("several dot groups", "1.234.567", 1234567.0),
		Entry("surrounding whitespace", "  42 ", 42.0),
		Entry("negative number", "-3.5", -3.5),
		Entry("zero with three decimals", "0.000", 0.0),
		Entry("float64", 12.5, 12.5),
		Entry("int", 7, 7.0),
		Entry("json.Number", json.Number("9.75"), 9.75),
	)

	DescribeTable("null values",
		func(input any) {
			a := NormalizeNumber(input)
			Expect(a.IsNull()).To(BeTrue())
			Expect(a.Valid).To(BeFalse())
		},
		Entry("nil", nil),
		Entry("empty string", ""),
		Entry("whitespace", "   "),
		Entry("null literal", "null"),
		Entry("None literal", "None"),
		Entry("NaN literal", "NaN"),
	)

	When("the string cannot be parsed", func() {
		It("returns the original string", func() {
			a := NormalizeNumber(" 12 EUR")
			Expect(a.Valid).To(BeFalse())
			Expect(a.IsNull()).To(BeFalse())
			Expect(a.Raw).To(Equal(" 12 EUR"))
		})

		It("does not accept infinities", func() {
			a := NormalizeNumber("inf")
			Expect(a.Valid).To(BeFalse())
			Expect(a.Raw).To(Equal("inf"))
		})
	})

	Describe("Amount", func() {
		It("renders a parsed value as a float cell", func() {
			Expect(NormalizeNumber("120").Cell()).To(Equal(120.0))
		})

		It("renders an unparseable value as its literal", func() {
			Expect(NormalizeNumber("n/a").Cell()).To(Equal("n/a"))
		})

		It("renders null as an empty cell", func() {
			Expect(NormalizeNumber(nil).Cell()).To(Equal(""))
		})

		It("falls back to zero for Float", func() {
			Expect(NormalizeNumber("n/a").Float()).To(Equal(0.0))
		})

		It("marshals to JSON by state", func() {
			b, err := json.Marshal([]Amount{
				NormalizeNumber("1,5"),
				NormalizeNumber("n/a"),
				NormalizeNumber(nil),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(Equal(`[1.5,"n/a",null]`))
		})
	})
})
