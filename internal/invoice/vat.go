package invoice

// VATPresent reports whether a VAT amount strictly greater than zero was
// recovered. Zero is treated as "not charged": invoices print 0.000 both when
// VAT is exempt and when it is absent, so the two cannot be told apart.
func VATPresent(v any) bool {
	a := NormalizeNumber(v)
	return a.Valid && a.Value > 0
}
