package ledger

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Workbook", func() {
	var (
		ctx  context.Context
		path string
		wb   *Workbook
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "nested", "invoices.xlsx")
		var err error
		wb, err = NewWorkbook(path)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		wb.Close()
	})

	When("nothing has been appended", func() {
		It("does not create the file", func() {
			Expect(path).NotTo(BeAnExistingFile())
		})

		It("returns no columns", func() {
			cols, err := wb.Columns(ctx, HeaderTable)
			Expect(err).NotTo(HaveOccurred())
			Expect(cols).To(BeNil())
		})

		It("returns no rows", func() {
			rows, err := wb.Rows(ctx, HeaderTable)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("Append", func() {
		var columns []string

		BeforeEach(func() {
			columns = []string{"Date", "Supplier", "Net Total", "Attributed To"}
		})

		JustBeforeEach(func() {
			Expect(wb.Append(ctx, HeaderTable, columns, [][]any{
				{"2025-03-12", "Acme", 1250.5, "alice"},
				{"2025-03-13", "Globex", "approx 40", ""},
			})).To(Succeed())
		})

		It("creates the file", func() {
			Expect(path).To(BeAnExistingFile())
		})

		It("writes the title row", func() {
			cols, err := wb.Columns(ctx, HeaderTable)
			Expect(err).NotTo(HaveOccurred())
			Expect(cols).To(Equal(columns))
		})

		It("pads rows with blank trailing cells", func() {
			rows, err := wb.Rows(ctx, HeaderTable)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([][]string{
				{"2025-03-12", "Acme", "1250.5", "alice"},
				{"2025-03-13", "Globex", "approx 40", ""},
			}))
		})

		It("replaces the default sheet", func() {
			f, err := excelize.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			Expect(f.GetSheetList()).To(Equal([]string{HeaderTable}))
		})

		It("stores numbers as numeric cells", func() {
			f, err := excelize.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			cellType, err := f.GetCellType(HeaderTable, "C2")
			Expect(err).NotTo(HaveOccurred())
			Expect(cellType).NotTo(Equal(excelize.CellTypeSharedString))
			Expect(cellType).NotTo(Equal(excelize.CellTypeInlineString))
		})

		When("appending to a second table", func() {
			JustBeforeEach(func() {
				Expect(wb.Append(ctx, DetailTable, []string{"Item", "Line Total"}, [][]any{{"Drill", 1020.0}})).To(Succeed())
			})

			It("keeps both sheets", func() {
				f, err := excelize.OpenFile(path)
				Expect(err).NotTo(HaveOccurred())
				defer f.Close()
				Expect(f.GetSheetList()).To(ConsistOf(HeaderTable, DetailTable))
			})

			It("leaves the first table untouched", func() {
				rows, err := wb.Rows(ctx, HeaderTable)
				Expect(err).NotTo(HaveOccurred())
				Expect(rows).To(HaveLen(2))
			})
		})

		When("appending again after reopening", func() {
			JustBeforeEach(func() {
				var err error
				wb, err = NewWorkbook(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(wb.Append(ctx, HeaderTable, columns, [][]any{{"2025-04-01", "Initech", 3.0, "bob"}})).To(Succeed())
			})

			It("adds after the last row", func() {
				rows, err := wb.Rows(ctx, HeaderTable)
				Expect(err).NotTo(HaveOccurred())
				Expect(rows).To(HaveLen(3))
				Expect(rows[2]).To(Equal([]string{"2025-04-01", "Initech", "3", "bob"}))
			})
		})
	})

	Describe("WriteTo", func() {
		It("streams a readable workbook", func() {
			Expect(wb.Append(ctx, DetailTable, []string{"Item"}, [][]any{{"Drill"}})).To(Succeed())

			var buf bytes.Buffer
			n, err := wb.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">", 0))

			f, err := excelize.OpenReader(&buf)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows(DetailTable)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([][]string{{"Item"}, {"Drill"}}))
		})
	})

	Describe("context", func() {
		It("rejects a cancelled context", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			Expect(wb.Append(cancelled, HeaderTable, nil, nil)).To(MatchError(context.Canceled))
		})
	})
})
