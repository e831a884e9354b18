package scanning

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert at reading invoices and receipts. You must carefully read all text in images and extract accurate information."

// invoiceScanPrompt is the shared prompt used by all LLM providers. The %s
// verb receives the allowed sub-categories.
const invoiceScanPrompt = `You are analyzing a photo of an invoice. Carefully read all text in the image and extract the following information:

1. **date**: The invoice date exactly as printed (for example 01/03/2024, 2024-03-01 or 1 Mar 2024).
2. **supplier**: The business that issued the invoice, usually the largest text at the top.
3. **net_total**: The final amount payable, as printed.
4. **vat_amount**: The total VAT/tax charged, as printed. Use null if the invoice shows no VAT.
5. **sub_category**: Exactly one of: %s.
6. **items**: Every line item with name, qty, rate, discount, vat and, if printed, line_total.

Return ONLY valid JSON in this exact format:
{
  "date": "...",
  "supplier": "...",
  "net_total": "...",
  "vat_amount": "...",
  "sub_category": "...",
  "items": [
    {"name": "...", "qty": "...", "rate": "...", "discount": "...", "vat": "...", "line_total": "..."}
  ]
}

Important:
- Copy numbers as printed, do not convert decimal separators
- If you cannot find a field, use null for that field
- Use an empty list for items if no line items are legible
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// Prompt builds the extraction prompt for the given sub-categories
func Prompt(categories []string) string {
	return fmt.Sprintf(invoiceScanPrompt, strings.Join(categories, ", "))
}
