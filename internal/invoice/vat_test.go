package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VATPresent", func() {
	DescribeTable("classification",
		func(input any, expected bool) {
			Expect(VATPresent(input)).To(Equal(expected))
		},
		Entry("null", nil, false),
		Entry("empty string", "", false),
		Entry("null literal", "null", false),
		Entry("zero", 0.0, false),
		Entry("zero with three decimals", "0.000", false),
		Entry("negative", "-1", false),
		Entry("unparseable", "included", false),
		Entry("positive number", 2.5, true),
		Entry("positive string", "1,50", true),
		Entry("positive thousands", "1.250", true),
	)
})
