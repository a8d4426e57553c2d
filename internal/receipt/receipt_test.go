package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Receipt", func() {
	var receipt *Receipt

	BeforeEach(func() {
		receipt = NewLidlParser().Parse("Melk 1.5 x 0,89\nActieprijs -0,20\nBrood 2,00 B\nKaas 4,00 B")
	})

	Describe("SelectedTotal", func() {
		When("nothing is selected", func() {
			It("should be zero", func() {
				Expect(receipt.SelectedTotal().IsZero()).To(BeTrue())
			})
		})

		When("items are selected", func() {
			BeforeEach(func() {
				_, err := receipt.SetSelected(0, true)
				Expect(err).NotTo(HaveOccurred())
				_, err = receipt.SetSelected(2, true)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should sum the selected net prices", func() {
				Expect(receipt.SelectedTotal()).To(equalAmount("5.135"))
			})

			It("should be stable when recomputed", func() {
				Expect(receipt.SelectedTotal()).To(equalAmount(receipt.SelectedTotal().String()))
			})
		})

		When("a fraction is set on a selected item", func() {
			BeforeEach(func() {
				_, err := receipt.SetSelected(2, true)
				Expect(err).NotTo(HaveOccurred())
				_, err = receipt.SetFraction(2, "1/2")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should count netPrice × fraction", func() {
				Expect(receipt.SelectedTotal()).To(equalAmount("2"))
			})
		})

		When("a fraction is set on an unselected item", func() {
			BeforeEach(func() {
				_, err := receipt.SetFraction(1, "0.5")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should not count the item", func() {
				Expect(receipt.SelectedTotal().IsZero()).To(BeTrue())
			})
		})
	})

	Describe("Toggle", func() {
		It("should flip the selection and return the new total", func() {
			total, err := receipt.Toggle(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(equalAmount("2"))

			total, err = receipt.Toggle(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(total.IsZero()).To(BeTrue())
		})

		It("returns ErrItemNotFound for a bad index", func() {
			_, err := receipt.Toggle(9)
			Expect(err).To(MatchError(ErrItemNotFound))
		})
	})

	Describe("SetFraction", func() {
		When("the input is invalid", func() {
			BeforeEach(func() {
				_, err := receipt.SetFraction(0, "0.25")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should keep the previous fraction", func() {
				_, err := receipt.SetFraction(0, "6")
				Expect(err).To(MatchError(ErrInvalidFraction))
				Expect(receipt.Items[0].Fraction).To(equalAmount("0.25"))
			})
		})
	})
})

var _ = Describe("ParseFraction", func() {
	It("should parse a ratio", func() {
		f, err := ParseFraction("2/3")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.InexactFloat64()).To(BeNumerically("~", 0.6667, 0.0001))
	})

	DescribeTable("accepts values in (0, 5]",
		func(input, want string) {
			f, err := ParseFraction(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(equalAmount(want))
		},
		Entry("one", "1", "1"),
		Entry("dot decimal", "0.5", "0.5"),
		Entry("comma decimal", "0,75", "0.75"),
		Entry("upper bound", "5", "5"),
		Entry("ratio above one", "3/2", "1.5"),
		Entry("surrounding space", " 1 / 4 ", "0.25"),
	)

	DescribeTable("rejects invalid input",
		func(input string) {
			_, err := ParseFraction(input)
			Expect(err).To(MatchError(ErrInvalidFraction))
		},
		Entry("zero", "0"),
		Entry("negative", "-1"),
		Entry("too large", "6"),
		Entry("zero denominator", "1/0"),
		Entry("text", "half"),
		Entry("empty", ""),
		Entry("negative ratio", "-1/2"),
		Entry("tiny exponent", "1e-100000"),
		Entry("exponent in a ratio", "1/1e3"),
	)
})

var _ = Describe("Item", func() {
	var item *Item

	BeforeEach(func() {
		item = newItem("Melk", decimal.RequireFromString("1.335"))
	})

	It("should keep net = max(gross - discounts, 0)", func() {
		for _, d := range []string{"0.20", "0.50", "1.00"} {
			item.ApplyDiscount(decimal.RequireFromString(d))
			want := decimal.Max(item.GrossPrice.Sub(item.DiscountTotal), decimal.Zero)
			Expect(item.NetPrice.Equal(want)).To(BeTrue())
		}
		Expect(item.NetPrice.IsZero()).To(BeTrue())
	})

	It("should treat negative discounts as their absolute value", func() {
		item.ApplyDiscount(decimal.RequireFromString("-0.20"))
		Expect(item.DiscountTotal).To(equalAmount("0.20"))
	})

	It("should label discounted prices", func() {
		item.ApplyDiscount(decimal.RequireFromString("0.20"))
		Expect(item.PriceLabel()).To(Equal("€1.34 − €0.20 = €1.14"))
	})

	It("should label undiscounted prices", func() {
		Expect(item.PriceLabel()).To(Equal("€1.34"))
	})

	It("should label the share", func() {
		item.Fraction = decimal.RequireFromString("0.5")
		Expect(item.ShareLabel()).To(Equal("50% → €0.67"))
	})

	It("should prefer the translated name", func() {
		Expect(item.Name()).To(Equal("Melk"))
		item.TranslatedName = "Milk"
		Expect(item.Name()).To(Equal("Milk"))
	})
})

var _ = Describe("LookupLink", func() {
	It("should build a site-restricted search", func() {
		Expect(LookupLink("Volle melk", "lidl.nl")).To(Equal("https://www.google.com/search?q=Volle+melk+site%3Alidl.nl"))
	})

	It("should omit the site when empty", func() {
		Expect(LookupLink("Melk", "")).To(Equal("https://www.google.com/search?q=Melk"))
	})
})

var _ = Describe("DisplayName", func() {
	It("should title-case and collapse spaces", func() {
		Expect(DisplayName("VOLLE   MELK")).To(Equal("Volle Melk"))
	})
})
